// Package locale maps Minecraft language codes (ko_kr, pt_br, ...) to the
// codes translation providers expect.
package locale

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Locale is a Minecraft language code.
type Locale struct {
	Code string
	// Google is the Google Translate code, empty when the language cannot be machine translated.
	Google string
}

// minecraftLocales lists every language Minecraft ships, with its Google
// Translate code where one exists.
var minecraftLocales = []Locale{
	{"af_za", "af"}, {"ar_sa", "ar"}, {"ast_es", ""}, {"az_az", "az"}, {"ba_ru", ""},
	{"bar", ""}, {"be_by", "be"}, {"bg_bg", "bg"}, {"br_fr", ""}, {"brb", ""},
	{"bs_ba", "bs"}, {"ca_es", "ca"}, {"cs_cz", "cs"}, {"cy_gb", "cy"}, {"da_dk", "da"},
	{"de_at", "de"}, {"de_ch", "de"}, {"de_de", "de"}, {"el_gr", "el"}, {"en_au", "en"},
	{"en_ca", "en"}, {"en_gb", "en"}, {"en_nz", "en"}, {"en_pt", "en"}, {"en_ud", "en"},
	{"en_us", "en"}, {"enp", ""}, {"enws", ""}, {"eo_uy", "eo"}, {"es_ar", "es"},
	{"es_cl", "es"}, {"es_ec", "es"}, {"es_es", "es"}, {"es_mx", "es"}, {"es_uy", "es"},
	{"es_ve", "es"}, {"esan", ""}, {"et_ee", "et"}, {"eu_es", "eu"}, {"fa_ir", "fa"},
	{"fi_fi", "fi"}, {"fil_ph", ""}, {"fo_fo", ""}, {"fr_ca", "fr"}, {"fr_fr", "fr"},
	{"fra_de", ""}, {"fur_it", ""}, {"fy_nl", "fy"}, {"ga_ie", "ga"}, {"gd_gb", "gd"},
	{"gl_es", "gl"}, {"haw_us", "haw"}, {"he_il", "he"}, {"hi_in", "hi"}, {"hr_hr", "hr"},
	{"hu_hu", "hu"}, {"hy_am", "hy"}, {"id_id", "id"}, {"ig_ng", "ig"}, {"io_en", ""},
	{"is_is", "is"}, {"isv", ""}, {"it_it", "it"}, {"ja_jp", "ja"}, {"jbo_en", ""},
	{"ka_ge", "ka"}, {"kk_kz", "kk"}, {"kn_in", "kn"}, {"ko_kr", "ko"}, {"ksh", ""},
	{"kw_gb", ""}, {"la_la", "la"}, {"lb_lu", "lb"}, {"li_li", ""}, {"lmo", ""},
	{"lo_la", "lo"}, {"lol_us", ""}, {"lt_lt", "lt"}, {"lv_lv", "lv"}, {"lzh", ""},
	{"mk_mk", "mk"}, {"mn_mn", "mn"}, {"ms_my", "ms"}, {"mt_mt", "mt"}, {"nah", ""},
	{"nds_de", ""}, {"nl_be", "nl"}, {"nl_nl", "nl"}, {"nn_no", ""}, {"no_no", "no"},
	{"oc_fr", ""}, {"ovd", ""}, {"pl_pl", "pl"}, {"pt_br", "pt"}, {"pt_pt", "pt"},
	{"qya_aa", ""}, {"ro_ro", "ro"}, {"rpr", ""}, {"ru_ru", "ru"}, {"ry_ua", ""},
	{"sah_sah", ""}, {"se_no", ""}, {"sk_sk", "sk"}, {"sl_si", "sl"}, {"so_so", "so"},
	{"sq_al", "sq"}, {"sr_cs", "sr"}, {"sr_sp", "sr"}, {"sv_se", "sv"}, {"sxu", ""},
	{"szl", ""}, {"ta_in", "ta"}, {"th_th", "th"}, {"tl_ph", "tl"}, {"tlh_aa", ""},
	{"tok", ""}, {"tr_tr", "tr"}, {"tt_ru", ""}, {"uk_ua", "uk"}, {"val_es", ""},
	{"vec_it", ""}, {"vi_vn", "vi"}, {"yi_de", "yi"}, {"yo_ng", "yo"}, {"zh_cn", "zh-CN"},
	{"zh_hk", ""}, {"zh_tw", "zh-TW"}, {"zlm_arab", ""},
}

var byCode = func() map[string]Locale {
	m := make(map[string]Locale, len(minecraftLocales))
	for _, l := range minecraftLocales {
		m[l.Code] = l
	}
	return m
}()

// deepLTargets are the target languages DeepL accepts.
var deepLTargets = []string{
	"AR", "BG", "CS", "DA", "DE", "EL", "EN-GB", "EN-US", "ES", "ET", "FI", "FR", "HE", "HU",
	"ID", "IT", "JA", "KO", "LT", "LV", "NB", "NL", "PL", "PT-BR", "PT-PT", "RO", "RU", "SK",
	"SL", "SV", "TH", "TR", "UK", "VI", "ZH-HANS", "ZH-HANT",
}

// Parse validates a Minecraft language code. "ko-KR" and "KO_KR" are accepted.
func Parse(code string) (Locale, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "-", "_"))
	l, ok := byCode[norm]
	if !ok {
		return Locale{}, fmt.Errorf("unknown Minecraft language %q", code)
	}
	return l, nil
}

// All returns every Minecraft language in code order.
func All() []Locale {
	return slices.Clone(minecraftLocales)
}

// Translatable reports whether a machine translation provider can target l.
func (l Locale) Translatable() bool {
	return l.Google != ""
}

func (l Locale) String() string {
	return l.Code
}

// Tag returns the BCP 47 tag of the language, or language.Und.
func (l Locale) Tag() language.Tag {
	if !l.Translatable() {
		return language.Und
	}
	return language.Make(l.Google)
}

// DisplayName returns the English name of the language, or the code itself.
func (l Locale) DisplayName() string {
	tag := l.Tag()
	if tag == language.Und {
		return l.Code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return l.Code
}

// DeepL returns the DeepL target language code.
func (l Locale) DeepL() (string, error) {
	var code string
	switch l.Code {
	case "en_gb", "en_au", "en_nz":
		code = "EN-GB"
	case "pt_pt":
		code = "PT-PT"
	case "zh_tw":
		code = "ZH-HANT"
	case "no_no":
		code = "NB"
	default:
		base, _ := l.Tag().Base()
		code = strings.ToUpper(base.String())
		switch code {
		case "EN":
			code = "EN-US"
		case "PT":
			code = "PT-BR"
		case "ZH":
			code = "ZH-HANS"
		}
	}
	if !slices.Contains(deepLTargets, code) {
		return "", fmt.Errorf("DeepL cannot translate into %s", l.Code)
	}
	return code, nil
}
