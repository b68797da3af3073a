package cache

import "strings"

// KeyPrice returns the cache key for a catalog price lookup.
func KeyPrice(sku string) string {
	return "price:" + strings.TrimSpace(sku)
}

// KeySetting returns the cache key for a business setting.
func KeySetting(key string) string {
	return "setting:" + strings.ToLower(strings.TrimSpace(key))
}

// KeyZip returns the cache key for ZIP tax data.
func KeyZip(zip string) string {
	return "zip:" + strings.TrimSpace(zip)
}
