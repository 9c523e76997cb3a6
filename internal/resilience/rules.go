package resilience

// Rules неизменяемая связка локали и границ. Создается на каждый ответ
// (thresholds могут поменяться в рантайме), все методы чистые.
type Rules struct {
	loc Locale
	th  Thresholds
}

func NewRules(loc Locale, th Thresholds) Rules {
	if loc == nil {
		loc = NewPtBR()
	}
	return Rules{loc: loc, th: th.Normalize()}
}

func (r Rules) Locale() Locale         { return r.loc }
func (r Rules) Thresholds() Thresholds { return r.th }
