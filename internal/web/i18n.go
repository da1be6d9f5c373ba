package web

import "strings"

var messages = map[string]map[string]string{
	"en": {
		"loading":         "Loading...",
		"not_found_title": "Screen not found",
		"not_found_body":  "This display link is no longer valid. Check the screen settings in the admin panel.",
		"blocked_title":   "Screen limit reached",
		"blocked_body":    "This screen is already being shown on another device. Close it there or upgrade your plan.",
		"blocked_retry":   "Try again",
		"blocked_upgrade": "Upgrade plan",
		"no_items":        "No items in this menu yet.",
		"empty_title":     "Nothing to show",
		"empty_body":      "Assign a template or a menu to this screen.",
		"stale":           "Offline, showing the last content",
	},
	"tr": {
		"loading":         "Yükleniyor...",
		"not_found_title": "Ekran bulunamadı",
		"not_found_body":  "Bu yayın bağlantısı artık geçerli değil. Yönetim panelinden ekran ayarlarını kontrol edin.",
		"blocked_title":   "Ekran sınırına ulaşıldı",
		"blocked_body":    "Bu ekran başka bir cihazda yayında. Oradaki yayını kapatın veya paketinizi yükseltin.",
		"blocked_retry":   "Tekrar dene",
		"blocked_upgrade": "Paketi yükselt",
		"no_items":        "Bu menüde henüz ürün yok.",
		"empty_title":     "Gösterilecek içerik yok",
		"empty_body":      "Bu ekrana bir şablon veya menü atayın.",
		"stale":           "Çevrimdışı, son içerik gösteriliyor",
	},
}

// Lang normalises a language code to one we have strings for.
func Lang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if _, ok := messages[code]; ok {
		return code
	}
	return "en"
}

// T returns the message for key in lang, falling back to English and then to
// the key itself.
func T(lang, key string) string {
	if msg, ok := messages[Lang(lang)][key]; ok {
		return msg
	}
	if msg, ok := messages["en"][key]; ok {
		return msg
	}
	return key
}
