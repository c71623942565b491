// Package categories holds the standardized service category catalog
// for the Madagascar marketplace.
package categories

import "strings"

// Subcategory is a concrete trade within a category.
type Subcategory struct {
	Code string
	Name string
}

// Category groups related trades under one marketplace heading.
type Category struct {
	Code          string
	Name          string
	Subcategories []Subcategory
}

// Catalog is the fixed category registry. Tender categories must match
// a category or subcategory code from this list.
var Catalog = []Category{
	{
		Code: "artisanat-creation",
		Name: "Artisanat & Création",
		Subcategories: []Subcategory{
			{Code: "menuiserie", Name: "Menuiserie"},
			{Code: "ebenisterie", Name: "Ébénisterie"},
			{Code: "charpenterie", Name: "Charpenterie"},
			{Code: "ferronnerie", Name: "Ferronnerie"},
			{Code: "soudure", Name: "Soudure"},
			{Code: "metallurgie", Name: "Métallurgie"},
			{Code: "bijouterie", Name: "Bijouterie"},
			{Code: "joaillerie", Name: "Joaillerie"},
			{Code: "couture", Name: "Couture"},
			{Code: "broderie", Name: "Broderie"},
			{Code: "textile", Name: "Textile"},
		},
	},
	{
		Code: "auto-mecanique",
		Name: "Services Auto & Mécanique",
		Subcategories: []Subcategory{
			{Code: "mecanicien-auto", Name: "Mécanicien auto"},
			{Code: "mecanicien-moto", Name: "Mécanicien moto"},
			{Code: "carrossier", Name: "Carrossier"},
			{Code: "peinture-auto", Name: "Peinture auto"},
			{Code: "vulcanisateur", Name: "Vulcanisateur"},
			{Code: "electricien-automobile", Name: "Électricien automobile"},
		},
	},
	{
		Code: "alimentation-restauration",
		Name: "Alimentation & Restauration",
		Subcategories: []Subcategory{
			{Code: "hotely-gasy", Name: "Hotely gasy"},
			{Code: "boulangerie", Name: "Boulangerie"},
			{Code: "patisserie", Name: "Pâtisserie"},
			{Code: "traiteur", Name: "Traiteur"},
			{Code: "mpanao-vary", Name: "Mpanao vary"},
			{Code: "bar-a-jus", Name: "Bar à jus"},
			{Code: "glacier", Name: "Glacier"},
		},
	},
	{
		Code: "services-personne",
		Name: "Services à la Personne",
		Subcategories: []Subcategory{
			{Code: "coiffeur", Name: "Coiffeur"},
			{Code: "barbier", Name: "Barbier"},
			{Code: "estheticienne", Name: "Esthéticienne"},
			{Code: "manucure", Name: "Manucure"},
			{Code: "massage-traditionnel", Name: "Massage traditionnel"},
			{Code: "blanchisserie", Name: "Blanchisserie"},
		},
	},
	{
		Code: "batiment-reparations",
		Name: "Bâtiment & Réparations",
		Subcategories: []Subcategory{
			{Code: "macon", Name: "Maçon"},
			{Code: "carreleur", Name: "Carreleur"},
			{Code: "plombier", Name: "Plombier"},
			{Code: "electricien", Name: "Électricien"},
			{Code: "peintre-batiment", Name: "Peintre en bâtiment"},
			{Code: "reparation-electromenager", Name: "Réparation électroménager"},
		},
	},
}

var labelByCode = buildIndex()

func buildIndex() map[string]string {
	idx := make(map[string]string)
	for _, cat := range Catalog {
		idx[cat.Code] = cat.Name
		for _, sub := range cat.Subcategories {
			idx[sub.Code] = sub.Name
		}
	}
	return idx
}

// IsValid reports whether code names a known category or subcategory.
func IsValid(code string) bool {
	_, ok := labelByCode[code]
	return ok
}

// Label returns the display name for a category or subcategory code.
// Unknown codes fall back to the code itself so rendering never
// breaks on stale data.
func Label(code string) string {
	if name, ok := labelByCode[code]; ok {
		return name
	}
	return code
}

// Subcategories returns the trades under a category code, or nil for
// an unknown category.
func Subcategories(categoryCode string) []Subcategory {
	for _, cat := range Catalog {
		if cat.Code == categoryCode {
			return cat.Subcategories
		}
	}
	return nil
}

// SearchResult is one hit from Search.
type SearchResult struct {
	Type         string // "category" or "subcategory"
	Code         string
	Name         string
	CategoryCode string
	CategoryName string
}

// Search finds categories and subcategories whose display name
// contains the keyword, case-insensitively.
func Search(keyword string) []SearchResult {
	lower := strings.ToLower(keyword)
	var results []SearchResult
	for _, cat := range Catalog {
		if strings.Contains(strings.ToLower(cat.Name), lower) {
			results = append(results, SearchResult{
				Type: "category",
				Code: cat.Code,
				Name: cat.Name,
			})
		}
		for _, sub := range cat.Subcategories {
			if strings.Contains(strings.ToLower(sub.Name), lower) {
				results = append(results, SearchResult{
					Type:         "subcategory",
					Code:         sub.Code,
					Name:         sub.Name,
					CategoryCode: cat.Code,
					CategoryName: cat.Name,
				})
			}
		}
	}
	return results
}
