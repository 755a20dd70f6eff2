// Hammers the public catalog endpoints with concurrent load.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const baseURL = "http://localhost:8080/api/products"

var categories = []string{"men", "women", "kids", ""}

func main() {
	for {
		var wg sync.WaitGroup
		for range rand.Intn(10) {
			wg.Go(doRequest)
		}
		wg.Wait()
		time.Sleep(20 * time.Millisecond)
	}
}

func doRequest() {
	url := baseURL
	if category := categories[rand.Intn(len(categories))]; category != "" {
		url = fmt.Sprintf("%s?category=%s&page=%d", baseURL, category, rand.Intn(3)+1)
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Println("request failed:", err)
		return
	}
	fmt.Println("GET", url, "->", resp.Status)
	resp.Body.Close()
}
