package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "model" or "alias").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			msg = "型が不正です"
		case "parse_error":
			msg = "解析エラー"
		case "unknown_model":
			msg = "未定義のモデルです"
		case "unknown_field":
			msg = "未定義のフィールドです"
		case "unknown_association":
			msg = "未定義の関連です"
		case "duplicate_model":
			msg = "モデルが重複しています"
		case "duplicate_alias":
			msg = "関連の別名が重複しています"
		case "invalid_kind":
			msg = "関連の種類が不正です"
		case "missing_through":
			msg = "中間モデルが指定されていません"
		case "missing_key":
			msg = "キーが指定されていません"
		case "ambiguous_key":
			msg = "キーが曖昧です"
		case "target_mismatch":
			msg = "関連先のモデルが一致しません"
		case "invalid_mode":
			msg = "出力モードが不正です"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			msg = "invalid type"
		case "parse_error":
			msg = "parse error"
		case "unknown_model":
			msg = "unknown model"
		case "unknown_field":
			msg = "unknown field"
		case "unknown_association":
			msg = "unknown association"
		case "duplicate_model":
			msg = "duplicate model"
		case "duplicate_alias":
			msg = "duplicate association alias"
		case "invalid_kind":
			msg = "invalid association kind"
		case "missing_through":
			msg = "through model missing"
		case "missing_key":
			msg = "key missing"
		case "ambiguous_key":
			msg = "ambiguous key"
		case "target_mismatch":
			msg = "related model does not match association target"
		case "invalid_mode":
			msg = "unsupported output mode"
		}
	}
	if msg == "" {
		return code
	}
	return withDetail(msg, data)
}

// withDetail appends the subject of the message, preferring alias, then
// model, then key.
func withDetail(msg string, data map[string]string) string {
	for _, k := range []string{"alias", "model", "field", "key", "kind"} {
		if v := data[k]; v != "" {
			return msg + ": " + strings.TrimSpace(v)
		}
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
