package marketplace

import (
	"fmt"
	"strings"

	"github.com/scrapedgit/backend/internal/domain"
)

// catalogEntry is a product the demo marketplaces list under every source
type catalogEntry struct {
	Name      string
	Brand     string
	BasePrice int64
	Rating    float64
	Sold      int64
	Store     string // official store handle
	Slug      string
	ItemID    string
}

// catalogCategory groups entries under a canonical product term and its aliases
type catalogCategory struct {
	Name    string
	Aliases []string
	Entries []catalogEntry
}

var catalog = []catalogCategory{
	{
		Name:    "laptop",
		Aliases: []string{"notebook", "ultrabook", "macbook"},
		Entries: []catalogEntry{
			{"ASUS VivoBook 15 Intel Core i5 Gen 13 16GB RAM 512GB SSD", "asus", 8500000, 4.8, 1250, "asus-official-store", "asus-vivobook-15-intel-core-i5-16gb-512gb-ssd", "8267756735"},
			{"ASUS TUF Gaming F15 Intel Core i5 16GB DDR4", "asus", 12500000, 4.9, 2100, "asus-official-store", "asus-tuf-gaming-f15-intel-core-i5-16gb", "8267756736"},
			{"ASUS ROG Strix G16 Intel i7-13650HX 16GB", "asus", 18500000, 4.9, 890, "asus-official-store", "asus-rog-strix-g16-intel-i7-13650hx-16gb", "8267756737"},
			{"Lenovo IdeaPad Slim 3 Intel Core i5-1335U 16GB DDR4 512GB", "lenovo", 9200000, 4.7, 890, "lenovo-official", "lenovo-ideapad-slim-3-intel-core-i5-1335u-16gb", "8267756738"},
			{"Lenovo ThinkPad E14 Gen 5 Intel Core i5 16GB", "lenovo", 13500000, 4.8, 280, "lenovo-official", "lenovo-thinkpad-e14-gen-5-intel-core-i5-16gb", "8267756739"},
			{"Lenovo Legion 5 AMD Ryzen 7 16GB RTX 4060", "lenovo", 16800000, 4.8, 1100, "lenovo-official", "lenovo-legion-5-amd-ryzen-7-16gb-rtx-4060", "8267756740"},
			{"HP Pavilion 14 Intel Core i5 13th Gen 16GB RAM", "hp", 9800000, 4.6, 720, "hp-official-store", "hp-pavilion-14-intel-core-i5-13th-gen-16gb", "8267756741"},
			{"HP 14s Intel Core i5-1335U 16GB RAM 512GB SSD", "hp", 8200000, 4.4, 1560, "hp-official-store", "hp-14s-intel-core-i5-1335u-16gb-512gb", "8267756742"},
			{"Acer Aspire 5 A515 Intel i5-13420H 16GB 512GB SSD", "acer", 8800000, 4.5, 560, "acer-official-id", "acer-aspire-5-a515-intel-i5-13420h-16gb-512gb", "8267756743"},
			{"Acer Swift Go 14 Intel Core i5-1335U 16GB LPDDR5", "acer", 10200000, 4.7, 450, "acer-official-id", "acer-swift-go-14-intel-core-i5-1335u-16gb", "8267756744"},
			{"Dell Inspiron 15 3520 Core i5-1235U 16GB Memory", "dell", 9500000, 4.7, 430, "dell-official", "dell-inspiron-15-3520-core-i5-1235u-16gb", "8267756745"},
			{"MSI Modern 15 B13M Intel i5 Gen 13 16GB", "msi", 11000000, 4.6, 340, "msi-official-store", "msi-modern-15-b13m-intel-i5-gen-13-16gb", "8267756746"},
		},
	},
	{
		Name:    "phone",
		Aliases: []string{"smartphone", "handphone", "hp", "ponsel", "iphone", "galaxy"},
		Entries: []catalogEntry{
			{"Samsung Galaxy S24 8GB/256GB", "samsung", 12500000, 4.9, 3200, "samsung-official", "samsung-galaxy-s24-8gb-256gb", "8267756747"},
			{"Samsung Galaxy A55 5G 8GB/256GB", "samsung", 5800000, 4.6, 4500, "samsung-official", "samsung-galaxy-a55-5g-8gb-256gb", "8267756748"},
			{"iPhone 15 128GB", "apple", 14500000, 4.8, 5400, "apple-official-store", "iphone-15-128gb", "8267756749"},
			{"iPhone 15 Pro Max 256GB", "apple", 22500000, 4.9, 2800, "apple-official-store", "iphone-15-pro-max-256gb", "8267756750"},
			{"Xiaomi 14 12GB/256GB", "xiaomi", 9800000, 4.7, 2100, "xiaomi-official-store", "xiaomi-14-12gb-256gb", "8267756751"},
			{"Xiaomi Redmi Note 13 Pro 8GB/256GB", "xiaomi", 3500000, 4.5, 8900, "xiaomi-official-store", "xiaomi-redmi-note-13-pro-8gb-256gb", "8267756752"},
			{"OPPO Reno 11 5G 12GB/256GB", "oppo", 5500000, 4.6, 1800, "oppo-official-store", "oppo-reno-11-5g-12gb-256gb", "8267756753"},
			{"Vivo V30 Pro 12GB/512GB", "vivo", 6800000, 4.5, 1200, "vivo-official", "vivo-v30-pro-12gb-512gb", "8267756754"},
		},
	},
	{
		Name:    "earbuds",
		Aliases: []string{"tws", "earphone", "headphone", "headset", "airpods", "buds"},
		Entries: []catalogEntry{
			{"Samsung Galaxy Buds2 Pro", "samsung", 2200000, 4.8, 4500, "samsung-official", "samsung-galaxy-buds2-pro", "8267756755"},
			{"Apple AirPods Pro 2nd Gen", "apple", 3800000, 4.9, 8900, "apple-official-store", "apple-airpods-pro-2nd-gen", "8267756756"},
			{"Sony WF-1000XM5", "sony", 4200000, 4.8, 2300, "sony-official-id", "sony-wf-1000xm5", "8267756757"},
			{"JBL Tune Buds", "jbl", 850000, 4.5, 6700, "jbl-official", "jbl-tune-buds", "8267756758"},
		},
	},
}

// sellerCities are the warehouse locations demo listings ship from
var sellerCities = []string{"Jakarta", "Surabaya", "Bandung", "Medan", "Semarang", "Makassar", "Yogyakarta", "Tangerang"}

// lookupCategory finds the catalog category for a keyword. Unknown keywords map to laptops.
func lookupCategory(keyword string) catalogCategory {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw != "" {
		for _, cat := range catalog {
			if strings.Contains(kw, cat.Name) || strings.Contains(cat.Name, kw) {
				return cat
			}
		}
		tokens := strings.Fields(kw)
		for _, cat := range catalog {
			for _, alias := range cat.Aliases {
				for _, tok := range tokens {
					if tok == alias {
						return cat
					}
				}
			}
		}
	}
	return catalog[0]
}

// KnownBrands lists every brand present in the catalog
func KnownBrands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, cat := range catalog {
		for _, e := range cat.Entries {
			if !seen[e.Brand] {
				seen[e.Brand] = true
				brands = append(brands, e.Brand)
			}
		}
	}
	return brands
}

// productLink builds the listing URL in the format each marketplace uses
func productLink(source string, e catalogEntry) string {
	switch source {
	case domain.SourceShopee:
		return fmt.Sprintf("https://shopee.co.id/%s-i.%s", e.Slug, e.ItemID)
	case domain.SourceLazada:
		return fmt.Sprintf("https://www.lazada.co.id/products/pdp-%s-i%s.html", e.Slug, e.ItemID)
	case domain.SourceBlibli:
		return fmt.Sprintf("https://www.blibli.com/p/%s/%s", e.Slug, e.ItemID)
	default:
		return fmt.Sprintf("https://www.tokopedia.com/%s/%s", e.Store, e.Slug)
	}
}

func imageURL(brand string) string {
	return "https://placehold.co/200x200/0ea5e9/white?text=" + strings.ToUpper(brand)
}
