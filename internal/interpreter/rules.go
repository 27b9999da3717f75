package interpreter

import "regexp"

// Range names the interpreter can recommend.
const (
	RangeSebocylique = "Sebocylique"
	RangeRetilift    = "Retilift"
	RangeVitalight   = "Vitalight"
	RangeHydramelon  = "Hydramelon"
)

// UnspecifiedSkinType is the sentinel when no skin type rule matches.
const UnspecifiedSkinType = "Type de peau non spécifié"

const (
	maxObservations = 4
	maxPriorities   = 3
	excerptRunes    = 200
)

// rule pairs a pattern with the value it yields. Lists of rules are
// evaluated in order and the order is part of the output contract.
type rule struct {
	pattern *regexp.Regexp
	value   string
}

// Go's \b is ASCII only, so it is never placed next to an accented letter.
var skinTypeRules = []rule{
	{regexp.MustCompile(`(?i)\bmixtes?\b|\bcombination\b`), "Peau mixte"},
	{regexp.MustCompile(`(?i)\bgrasses?\b|\boily\b`), "Peau grasse"},
	{regexp.MustCompile(`(?i)\bs[eèé]ches?\b|\bdry\b`), "Peau sèche"},
	{regexp.MustCompile(`(?i)\bsensibles?\b|\bsensitive\b`), "Peau sensible"},
	{regexp.MustCompile(`(?i)\bnormal(es?)?\b`), "Peau normale"},
}

var rangeRules = []rule{
	{regexp.MustCompile(`(?i)s[eé]bo[\s-]*cylique`), RangeSebocylique},
	{regexp.MustCompile(`(?i)r[eé]ti[\s-]*lift`), RangeRetilift},
	{regexp.MustCompile(`(?i)vita[\s-]*light`), RangeVitalight},
	{regexp.MustCompile(`(?i)hydra[\s-]*melon`), RangeHydramelon},
}

// bulletPattern matches a list marker and the whitespace after it.
var bulletPattern = regexp.MustCompile(`^\s*(?:[-•*▪●–]|\d+[.)])\s+`)

// observationKeywords selects unmarked lines that describe the skin.
var observationKeywords = regexp.MustCompile(`(?i)peau|\bpores?\b|\brides\b|ridules|\btaches?\b|rougeurs?|brillan|s[ée]bum|hydrat|imperfection|texture|\bteint\b|[ée]clat|\bzone\s*t\b|cernes`)

// priorityRules are the five topic groups, in output order.
var priorityRules = []rule{
	{
		regexp.MustCompile(`(?i)\bgras|s[ée]bum|brillan|imperfection|\bboutons?\b|acn[ée]|points?\s+noirs?|\bpores\b`),
		"Réguler l'excès de sébum et limiter l'apparition des imperfections",
	},
	{
		regexp.MustCompile(`(?i)\brides?\b|ridules|vieilliss|fermet[ée]|rel[aâ]chement|anti[\s-]?[aâ]ge|[ée]lasticit`),
		"Prévenir et atténuer les signes de l'âge (rides, perte de fermeté)",
	},
	{
		regexp.MustCompile(`(?i)\btaches?\b|pigment|\bternes?\b|[ée]clat`),
		"Unifier le teint et raviver l'éclat de la peau",
	},
	{
		regexp.MustCompile(`(?i)s[eèé]ch(?:e|eresse)|d[ée]shydrat|tiraill`),
		"Restaurer l'hydratation et renforcer la barrière cutanée",
	},
	{
		regexp.MustCompile(`(?i)sensib|rougeurs?|irrit|rosac[ée]e|couperose|r[ée]activ`),
		"Apaiser les rougeurs et préserver le confort de la peau",
	},
}

const (
	fallbackObservation = "Analyse de votre peau réalisée avec succès"
	fallbackPriority    = "Suivre une routine de soin personnalisée adaptée à votre peau"
)

func firstMatch(rules []rule, message string) (string, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(message) {
			return r.value, true
		}
	}
	return "", false
}
