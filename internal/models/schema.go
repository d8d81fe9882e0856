package models

import "time"

// GeneratedSchema is the display-ready projection derived from the current
// summary and price quotes. It is regenerated wholesale on every successful
// run and never patched in place.
type GeneratedSchema struct {
	Product     ProductSchema `json:"product"`
	SEO         SEOMetadata   `json:"seo"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// ProductSchema is a schema.org/Product JSON-LD document.
type ProductSchema struct {
	Context         string           `json:"@context"`
	Type            string           `json:"@type"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Image           string           `json:"image,omitempty"`
	Brand           *BrandSchema     `json:"brand,omitempty"`
	AggregateRating *AggregateRating `json:"aggregateRating,omitempty"`
	Offers          *AggregateOffer  `json:"offers,omitempty"`
	Review          []ReviewSchema   `json:"review,omitempty"`
}

type BrandSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type AggregateRating struct {
	Type        string  `json:"@type"`
	RatingValue float64 `json:"ratingValue"`
	BestRating  int     `json:"bestRating"`
	WorstRating int     `json:"worstRating"`
	RatingCount int     `json:"ratingCount"`
	ReviewCount int     `json:"reviewCount"`
}

type AggregateOffer struct {
	Type          string        `json:"@type"`
	LowPrice      int           `json:"lowPrice"`
	HighPrice     int           `json:"highPrice"`
	PriceCurrency string        `json:"priceCurrency"`
	OfferCount    int           `json:"offerCount"`
	Offers        []OfferSchema `json:"offers,omitempty"`
}

type OfferSchema struct {
	Type          string `json:"@type"`
	Price         int    `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	URL           string `json:"url,omitempty"`
	SellerName    string `json:"sellerName,omitempty"`
}

type ReviewSchema struct {
	Type          string        `json:"@type"`
	AuthorName    string        `json:"authorName"`
	DatePublished string        `json:"datePublished,omitempty"`
	URL           string        `json:"url,omitempty"`
	ReviewRating  *RatingSchema `json:"reviewRating,omitempty"`
}

type RatingSchema struct {
	Type        string  `json:"@type"`
	RatingValue float64 `json:"ratingValue"`
	BestRating  int     `json:"bestRating"`
}

// SEOMetadata carries the templated head-tag fields for the product page.
type SEOMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}
