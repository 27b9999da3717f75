// Package routine derives a morning and evening skincare routine from an
// interpreted profile.
package routine

import (
	"go-skin-analyzer/internal/interpreter"
)

// Step is one stage of a routine.
type Step struct {
	Role    string `json:"role"`
	Benefit string `json:"benefit"`
	Tip     string `json:"tip,omitempty"`
}

// Routine holds the two ordered phases.
type Routine struct {
	Morning []Step `json:"morning"`
	Evening []Step `json:"evening"`
}

// Phase selects one side of a Routine.
type Phase int

const (
	Morning Phase = iota
	Evening
)

// Field selects which text of a step an override replaces.
type Field int

const (
	FieldBenefit Field = iota
	FieldTip
)

// override replaces one field of one template step.
type override struct {
	phase Phase
	index int
	field Field
	text  string
}

// specialization is what a range changes on the base template.
type specialization struct {
	overrides []override
	extra     *Step
}

func baseMorning() []Step {
	return []Step{
		{Role: "Nettoyant", Benefit: "Élimine les impuretés de la nuit en douceur", Tip: "Rincez à l'eau tiède, jamais chaude"},
		{Role: "Sérum", Benefit: "Concentre les actifs au cœur de la peau", Tip: "Appliquez 2 à 3 gouttes sur peau encore légèrement humide"},
		{Role: "Crème hydratante", Benefit: "Hydrate et protège la peau tout au long de la journée", Tip: "Massez du centre du visage vers l'extérieur"},
		{Role: "Protection solaire SPF", Benefit: "Protège des UV et du photo-vieillissement", Tip: "Renouvelez toutes les 2 heures en cas d'exposition"},
	}
}

func baseEvening() []Step {
	return []Step{
		{Role: "Démaquillant", Benefit: "Retire maquillage et filtre solaire", Tip: "Insistez sur les zones du contour des yeux sans frotter"},
		{Role: "Nettoyant", Benefit: "Purifie la peau et libère les pores", Tip: "Massez 30 secondes avant de rincer"},
		{Role: "Sérum de nuit", Benefit: "Accompagne la régénération nocturne de la peau", Tip: "Laissez pénétrer une minute avant la crème"},
		{Role: "Crème de nuit", Benefit: "Nourrit et répare la peau pendant le sommeil", Tip: "Appliquez en couche généreuse, y compris sur le cou"},
	}
}

// specializations maps each known range to its template changes. Ranges not
// listed leave the template untouched.
var specializations = map[string]specialization{
	interpreter.RangeSebocylique: {
		overrides: []override{
			{Morning, 0, FieldBenefit, "Purifie sans dessécher et régule la production de sébum"},
			{Morning, 2, FieldBenefit, "Hydrate sans effet gras et matifie la zone T"},
			{Evening, 2, FieldBenefit, "Affine le grain de peau et limite les imperfections"},
		},
		extra: &Step{Role: "Soin ciblé imperfections", Benefit: "Assèche localement les boutons et limite les marques", Tip: "Appliquez uniquement sur les zones concernées"},
	},
	interpreter.RangeRetilift: {
		overrides: []override{
			{Morning, 1, FieldBenefit, "Lisse les traits et stimule la fermeté"},
			{Evening, 2, FieldBenefit, "Intensifie le renouvellement cellulaire pour atténuer rides et ridules"},
			{Evening, 3, FieldTip, "Remontez en lissant de la base du cou vers le front"},
		},
		extra: &Step{Role: "Contour des yeux", Benefit: "Atténue ridules et pattes d'oie", Tip: "Tapotez du bout de l'annulaire, de l'intérieur vers l'extérieur"},
	},
	interpreter.RangeVitalight: {
		overrides: []override{
			{Morning, 1, FieldBenefit, "Ravive l'éclat et unifie le teint grâce à la vitamine C"},
			{Evening, 2, FieldBenefit, "Estompe progressivement les taches pigmentaires"},
		},
	},
	interpreter.RangeHydramelon: {
		overrides: []override{
			{Morning, 2, FieldBenefit, "Repulpe et désaltère la peau pour 24 heures"},
			{Evening, 3, FieldBenefit, "Restaure la barrière cutanée et prévient la déshydratation"},
		},
	},
}

// Synthesize is total and deterministic. Every call returns fresh slices.
func Synthesize(profile interpreter.Profile) Routine {
	r := Routine{Morning: baseMorning(), Evening: baseEvening()}

	spec, ok := specializations[profile.RecommendedRange]
	if !ok {
		return r
	}
	for _, o := range spec.overrides {
		steps := r.Morning
		if o.phase == Evening {
			steps = r.Evening
		}
		if o.index < 0 || o.index >= len(steps) {
			continue
		}
		switch o.field {
		case FieldBenefit:
			steps[o.index].Benefit = o.text
		case FieldTip:
			steps[o.index].Tip = o.text
		}
	}
	if spec.extra != nil {
		r.Evening = append(r.Evening, *spec.extra)
	}
	return r
}
