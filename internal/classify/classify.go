// Package classify maps a candidate file's contextual text to a category
// folder and a descriptive output filename using ordered keyword tables.
// Classification is a pure function of its inputs; table order is significant
// and determines the output, so entries are held in slices, not maps.
package classify

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Category is one of the fixed top-level output buckets.
type Category string

const (
	// CategoryNAM holds neural-amp-model captures (.nam files).
	CategoryNAM Category = "NAM_Capturas"
	// CategoryBass holds bass cabinet and bass amp impulse responses.
	CategoryBass Category = "IR_Bajo"
	// CategoryAcoustic holds acoustic/piezo body impulse responses.
	CategoryAcoustic Category = "IR_Acustica"
	// CategoryUtility holds room, reverb and other utility impulses.
	CategoryUtility Category = "IR_Utilidades"
	// CategoryGuitar is the default bucket for electric guitar IRs.
	CategoryGuitar Category = "IR_Guitarra"
)

// Categories lists every output bucket, for directory setup and catalogs.
func Categories() []Category {
	return []Category{CategoryNAM, CategoryBass, CategoryAcoustic, CategoryUtility, CategoryGuitar}
}

// patternEntry maps a token to the ordered regex patterns that select it.
type patternEntry struct {
	token    string
	patterns []*regexp.Regexp
}

func entry(token string, patterns ...string) patternEntry {
	e := patternEntry{token: token}
	for _, p := range patterns {
		e.patterns = append(e.patterns, regexp.MustCompile(p))
	}
	return e
}

// brands is the ordered brand table. The first entry whose any pattern
// matches wins, so broader brands sit above speaker manufacturers that share
// tokens with them.
var brands = []patternEntry{
	entry("Marshall", `marshall`, `jcm`, `jvm`, `plexi`, `1959`, `1987`, `2203`, `2204`, `dsl`, `jmp`),
	entry("Fender", `fender`, `twin`, `deluxe.reverb`, `bassman`, `princeton`, `champ`, `vibrolux`),
	entry("Mesa", `mesa`, `boogie`, `rectifier`, `recto`, `dual.rec`, `triple.rec`, `mark.(iv|v|ii|iii)`, `lonestar`),
	entry("Vox", `vox`, `ac.?30`, `ac.?15`),
	entry("Orange", `orange`, `rockerverb`, `thunderverb`, `tiny.terror`, `or\d0`),
	entry("Peavey", `peavey`, `5150`, `6505`, `invective`),
	entry("EVH", `\bevh\b`, `stealth`),
	entry("Bogner", `bogner`, `uberschall`, `ecstasy`, `shiva`),
	entry("Soldano", `soldano`, `slo`),
	entry("Diezel", `diezel`, `herbert`, `vh4`),
	entry("Friedman", `friedman`, `be.?100`, `dirty.shirley`, `butterslax`),
	entry("Engl", `engl`, `powerball`, `fireball`, `savage`),
	entry("Ampeg", `ampeg`, `svt`, `b-?15`, `portaflex`),
	entry("Darkglass", `darkglass`, `b7k`),
	entry("Hiwatt", `hiwatt`),
	entry("Suhr", `\bsuhr\b`, `badger`),
	entry("Hughes_Kettner", `hughes.*kettner`, `triamp`, `tubemeister`),
	entry("Laney", `laney`, `ironheart`),
	entry("Revv", `\brevv\b`, `generator`),
	entry("Victory", `victory`, `kraken`),
	entry("Celestion", `celestion`, `v30`, `vintage.30`, `greenback`, `creamback`, `g12`, `alnico`),
	entry("Eminence", `eminence`, `swamp.thang`, `legend`),
	entry("Jensen", `jensen`),
	entry("Randall", `randall`, `satan`),
	entry("Blackstar", `blackstar`, `ht.?club`),
	entry("Two_Rock", `two.rock`),
	entry("Matchless", `matchless`, `dc.?30`),
	entry("Dr_Z", `dr.?z`, `maz`),
	entry("Dumble", `dumble`, `overdrive.special`),
	entry("Trainwreck", `trainwreck`),
	entry("Rivera", `rivera`),
	entry("Kemper", `kemper`),
	entry("Line6", `line.?6`, `helix`, `pod`),
	entry("Boss", `\bboss\b`, `katana`),
	entry("TC_Electronic", `tc.electronic`),
}

// models are amp/cab model identifiers extracted verbatim from the context,
// whitespace collapsed to underscores. First match wins.
var models = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(JCM\s*\d+)`),
	regexp.MustCompile(`(?i)(JVM\s*\d+)`),
	regexp.MustCompile(`(?i)(DSL\s*\d+)`),
	regexp.MustCompile(`(?i)(5150\w*)`),
	regexp.MustCompile(`(?i)(6505\w*)`),
	regexp.MustCompile(`(?i)(Dual\s*Rec\w*)`),
	regexp.MustCompile(`(?i)(Triple\s*Rec\w*)`),
	regexp.MustCompile(`(?i)(Rectifier)`),
	regexp.MustCompile(`(?i)(Mark\s*(?:IV|V|III|II))`),
	regexp.MustCompile(`(?i)(AC\s*30)`),
	regexp.MustCompile(`(?i)(AC\s*15)`),
	regexp.MustCompile(`(?i)(SLO.?\d*)`),
	regexp.MustCompile(`(?i)(VH4)`),
	regexp.MustCompile(`(?i)(Herbert)`),
	regexp.MustCompile(`(?i)(BE.?100)`),
	regexp.MustCompile(`(?i)(SVT\w*)`),
	regexp.MustCompile(`(?i)(Twin\s*Reverb)`),
	regexp.MustCompile(`(?i)(Deluxe\s*Reverb)`),
	regexp.MustCompile(`(?i)(Bassman)`),
	regexp.MustCompile(`(?i)(Princeton)`),
	regexp.MustCompile(`(?i)(Plexi)`),
}

var cabs = []patternEntry{
	entry("1x12", `1x12`),
	entry("2x12", `2x12`),
	entry("4x12", `4x12`),
	entry("1x10", `1x10`),
	entry("2x10", `2x10`),
	entry("4x10", `4x10`),
	entry("1x15", `1x15`),
	entry("8x10", `8x10`),
}

var speakers = []patternEntry{
	entry("V30", `v30`, `vintage.?30`),
	entry("Greenback", `greenback`, `g12m`),
	entry("G12H", `g12h`),
	entry("G12T75", `g12t.?75`),
	entry("Creamback", `creamback`),
	entry("Alnico", `alnico`),
	entry("EVM12L", `evm`),
}

var mics = []patternEntry{
	entry("SM57", `sm57`, `sm.?57`),
	entry("MD421", `md421`, `md.?421`),
	entry("R121", `r121`, `royer`),
	entry("U87", `u87`),
	entry("E609", `e609`),
}

// Keyword groups for category assignment and style tokens. Plain substring
// matching over the lowercased context, first group wins.
var (
	bassKeywords     = []string{"bass", "bajo", "svt", "ampeg", "darkglass", "8x10", "4x10", "b-15", "b15", "portaflex"}
	acousticKeywords = []string{"acoustic", "piezo", "electroac", "taylor", "martin", "nylon", "body"}
	utilityKeywords  = []string{"reverb", "room", "hall", "plate", "spring", "echo", "ambient", "space", "convol"}

	hiGainKeywords  = []string{"high gain", "metal", "djent", "hi gain"}
	crunchKeywords  = []string{"crunch", "breakup"}
	cleanKeywords   = []string{"clean", "pristine", "jazz"}
	vintageKeywords = []string{"vintage", "classic"}
)

var (
	junkWords   = regexp.MustCompile(`(?i)[\[\(]?(free|download|pack|sample|demo|www\.\S+)[\]\)]?`)
	separators  = regexp.MustCompile(`[\s\-\.]+`)
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	multiScore  = regexp.MustCompile(`_+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

const (
	maxFallbackStem  = 60
	maxSecondaryStem = 40
)

// Categorize assigns a category from the concatenation of context and
// filename, evaluated case-insensitively. Rules are ordered; the model
// extension short-circuits everything else.
func Categorize(context, filename string) Category {
	c := strings.ToLower(context + " " + filename)
	if strings.ToLower(filepath.Ext(filename)) == ".nam" {
		return CategoryNAM
	}
	if containsAny(c, bassKeywords) {
		return CategoryBass
	}
	if containsAny(c, acousticKeywords) {
		return CategoryAcoustic
	}
	if containsAny(c, utilityKeywords) {
		return CategoryUtility
	}
	return CategoryGuitar
}

// CleanName builds the descriptive output filename for a candidate: ordered
// brand/model/cab/speaker/mic/style tokens joined with underscores,
// sanitized, with the original extension preserved.
func CleanName(context, filename string) string {
	c := context + " " + filename
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	ext := strings.ToLower(filepath.Ext(filename))

	var parts []string
	if brand := matchEntry(c, brands); brand != "" {
		parts = append(parts, brand)
	}
	if model := matchModel(c); model != "" {
		parts = append(parts, model)
	}
	if cab := matchEntry(c, cabs); cab != "" {
		parts = append(parts, cab)
	}
	if spk := matchEntry(c, speakers); spk != "" {
		parts = append(parts, spk)
	}
	if mic := matchEntry(c, mics); mic != "" {
		parts = append(parts, mic)
	}
	if style := styleToken(c); style != "" {
		parts = append(parts, style)
	}

	switch len(parts) {
	case 0:
		parts = append(parts, fallbackStem(stem))
	case 1:
		// A lone brand token says too little; carry the cleaned stem along
		// unless it just repeats the brand.
		s := truncate(collapseStem(stem), maxSecondaryStem)
		if !strings.EqualFold(s, parts[0]) {
			parts = append(parts, s)
		}
	}

	name := strings.Join(parts, "_")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(multiScore.ReplaceAllString(name, "_"), "_")
	return name + ext
}

// Classify is the combined contract: category plus output filename.
func Classify(context, filename string) (Category, string) {
	return Categorize(context, filename), CleanName(context, filename)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func matchEntry(text string, table []patternEntry) string {
	t := strings.ToLower(text)
	for _, e := range table {
		for _, p := range e.patterns {
			if p.MatchString(t) {
				return e.token
			}
		}
	}
	return ""
}

func matchModel(text string) string {
	for _, p := range models {
		if m := p.FindStringSubmatch(text); m != nil {
			return whitespace.ReplaceAllString(strings.TrimSpace(m[1]), "_")
		}
	}
	return ""
}

func styleToken(text string) string {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, hiGainKeywords):
		return "HiGain"
	case containsAny(t, crunchKeywords):
		return "Crunch"
	case containsAny(t, cleanKeywords):
		return "Clean"
	case containsAny(t, vintageKeywords):
		return "Vintage"
	}
	return ""
}

func collapseStem(stem string) string {
	s := separators.ReplaceAllString(stem, "_")
	return strings.Trim(multiScore.ReplaceAllString(s, "_"), "_")
}

// fallbackStem cleans a raw filename stem for use as the sole token: strips
// marketing junk words, collapses separators and title-cases each word.
func fallbackStem(stem string) string {
	s := junkWords.ReplaceAllString(stem, "")
	s = collapseStem(s)

	var words []string
	for _, w := range strings.Split(s, "_") {
		if w == "" {
			continue
		}
		if len(w) > 2 {
			words = append(words, strings.ToUpper(w[:1])+strings.ToLower(w[1:]))
		} else {
			words = append(words, strings.ToUpper(w))
		}
	}
	out := strings.Join(words, "_")
	if out == "" {
		out = stem
	}
	return truncate(out, maxFallbackStem)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
