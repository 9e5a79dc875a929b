package utils

// Server-side i18n for the fixed set of gateway fallback messages. The
// check-in UI carries its own strings; the server only localizes texts it
// originates itself (fail-closed gateway results).

var translations = map[string]map[string]string{
	"en": {
		"health.ok":                 "ok",
		"face.connection_error":     "The photo could not be verified right now. Please retake it and try again.",
		"analysis.connection_error": "The fatigue analysis service could not be reached. Your check-in was not recorded.",
		"analysis.retry":            "Please check your connection and retake the photo to try again.",
	},
	"es": {
		"health.ok":                 "ok",
		"face.connection_error":     "No se pudo verificar la foto en este momento. Vuelve a tomarla e inténtalo de nuevo.",
		"analysis.connection_error": "No se pudo contactar el servicio de análisis de fatiga. Tu registro no fue guardado.",
		"analysis.retry":            "Comprueba tu conexión y vuelve a tomar la foto para intentarlo de nuevo.",
	},
	"pt": {
		"health.ok":                 "ok",
		"face.connection_error":     "Não foi possível verificar a foto agora. Tire a foto novamente e tente outra vez.",
		"analysis.connection_error": "Não foi possível contatar o serviço de análise de fadiga. Seu registro não foi salvo.",
		"analysis.retry":            "Verifique sua conexão e tire a foto novamente para tentar outra vez.",
	},
}

// SupportedLocales lists the locales the server can answer in.
func SupportedLocales() []string {
	return []string{"en", "es", "pt"}
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
