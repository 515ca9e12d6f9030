package providers

import "strings"

const placeholderBase = "https://via.placeholder.com/300x200/"

var categoryPlaceholders = map[string]string{
	"it":  placeholderBase + "0066CC/FFFFFF?text=IT+뉴스",
	"디지털": placeholderBase + "0066CC/FFFFFF?text=IT+뉴스",
	"글로벌": placeholderBase + "009900/FFFFFF?text=Global+News",
	"스포츠": placeholderBase + "FF6600/FFFFFF?text=스포츠+뉴스",
	"연예":  placeholderBase + "FF1493/FFFFFF?text=연예+뉴스",
	"경제":  placeholderBase + "228B22/FFFFFF?text=경제+뉴스",
	"뉴스":  placeholderBase + "CC3333/FFFFFF?text=한국+뉴스",
	"종합":  placeholderBase + "CC3333/FFFFFF?text=한국+뉴스",
}

const defaultPlaceholder = placeholderBase + "666666/FFFFFF?text=뉴스"

// Placeholder returns the category image used when an article has none.
func Placeholder(category string) string {
	if u, ok := categoryPlaceholders[strings.ToLower(strings.TrimSpace(category))]; ok {
		return u
	}
	return defaultPlaceholder
}

