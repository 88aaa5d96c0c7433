package goutil

import (
	"crypto/sha256"
	"encoding/hex"
	"reflect"
	"strings"
)

func ContainsStr(arr []string, str string) bool {
	for _, v := range arr {
		if v == str {
			return true
		}
	}
	return false
}

func IsNil(i interface{}) bool {
	if i == nil {
		return true
	}
	switch reflect.TypeOf(i).Kind() {
	case reflect.Ptr, reflect.Map, reflect.Array, reflect.Chan, reflect.Slice:
		return reflect.ValueOf(i).IsNil()
	default:
		return false
	}
}

func Sha256(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// ExtractEmailAddress pulls the bare address out of a From header value.
// "Name <a@b.com>" yields a@b.com; anything else is returned trimmed.
func ExtractEmailAddress(sender string) string {
	start := strings.Index(sender, "<")
	end := strings.Index(sender, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(sender[start+1 : end])
	}
	return strings.TrimSpace(sender)
}
