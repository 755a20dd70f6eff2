// Seeds the catalog with a starter set of products for local development.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/postgres"
	"github.com/deshiwear/storefront/internal/repo"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func products() []entities.Product {
	return []entities.Product{
		{
			Name: entities.LocalizedText{
				EN: "Men's Classic T-Shirt",
				BN: "পুরুষদের ক্লাসিক টি-শার্ট",
			},
			Description: entities.LocalizedText{
				EN: "Premium quality cotton t-shirt for men. Comfortable and stylish for everyday wear.",
				BN: "পুরুষদের জন্য প্রিমিয়াম কোয়ালিটি কটন টি-শার্ট।",
			},
			Price:         899,
			OriginalPrice: 1299,
			Category:      "men",
			Sizes: []entities.SizeStock{
				{Size: "S", Stock: 25},
				{Size: "M", Stock: 30},
				{Size: "L", Stock: 20},
				{Size: "XL", Stock: 15},
			},
			Colors:   []string{"Black", "White", "Navy Blue"},
			Images:   []string{"https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=500"},
			Featured: true,
			Active:   true,
		},
		{
			Name: entities.LocalizedText{
				EN: "Men's Formal Shirt",
				BN: "পুরুষদের ফরমাল শার্ট",
			},
			Description: entities.LocalizedText{
				EN: "Slim fit formal shirt, wrinkle resistant fabric.",
				BN: "স্লিম ফিট ফরমাল শার্ট।",
			},
			Price:         1499,
			OriginalPrice: 1999,
			Category:      "men",
			Sizes: []entities.SizeStock{
				{Size: "M", Stock: 18},
				{Size: "L", Stock: 22},
				{Size: "XL", Stock: 10},
			},
			Colors: []string{"White", "Sky Blue"},
			Active: true,
		},
		{
			Name: entities.LocalizedText{
				EN: "Women's Cotton Saree",
				BN: "মহিলাদের কটন শাড়ি",
			},
			Description: entities.LocalizedText{
				EN: "Traditional Tangail cotton saree with handwoven border.",
				BN: "ঐতিহ্যবাহী টাঙ্গাইল কটন শাড়ি।",
			},
			Price:         2499,
			OriginalPrice: 3200,
			Category:      "women",
			Sizes: []entities.SizeStock{
				{Size: "Free", Stock: 40},
			},
			Colors:   []string{"Red", "Green", "Maroon"},
			Featured: true,
			Active:   true,
		},
		{
			Name: entities.LocalizedText{
				EN: "Women's Three Piece",
				BN: "মহিলাদের থ্রি পিস",
			},
			Description: entities.LocalizedText{
				EN: "Unstitched lawn three piece with embroidered dupatta.",
				BN: "আনস্টিচড লন থ্রি পিস।",
			},
			Price:    1899,
			Category: "women",
			Sizes: []entities.SizeStock{
				{Size: "Free", Stock: 35},
			},
			Colors: []string{"Pink", "Teal"},
			Active: true,
		},
		{
			Name: entities.LocalizedText{
				EN: "Kids' Panjabi",
				BN: "বাচ্চাদের পাঞ্জাবি",
			},
			Description: entities.LocalizedText{
				EN: "Festive cotton panjabi for boys.",
				BN: "ছেলেদের জন্য উৎসবের কটন পাঞ্জাবি।",
			},
			Price:    799,
			Category: "kids",
			Sizes: []entities.SizeStock{
				{Size: "2-3Y", Stock: 12},
				{Size: "4-5Y", Stock: 14},
				{Size: "6-7Y", Stock: 9},
			},
			Colors:   []string{"White", "Golden"},
			Featured: true,
			Active:   true,
		},
	}
}

func main() {
	godotenv.Load()
	conf := config.New()

	db, err := postgres.New(conf.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	productRepo := repo.NewProductRepo(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, p := range products() {
		p.ID = uuid.NewString()
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now

		if err := productRepo.CreateProduct(ctx, p); err != nil {
			log.Fatalf("failed to seed %q: %v", p.Name.EN, err)
		}
		fmt.Println("seeded", p.Name.EN)
	}
}
