package firebasedb

import "strings"

// Firebase keys cannot contain '.', '/', '#', '$', '[' or ']'. Seller ids
// are emails, so they are escaped on the way in.
var (
	sanitizer   = strings.NewReplacer(".", "_dot_", "@", "_at_", "/", "_slash_")
	desanitizer = strings.NewReplacer("_dot_", ".", "_at_", "@", "_slash_", "/")
)

func SanitizeKey(id string) string   { return sanitizer.Replace(id) }
func DesanitizeKey(key string) string { return desanitizer.Replace(key) }
