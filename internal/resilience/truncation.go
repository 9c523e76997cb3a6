package resilience

import (
	"sort"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// knownSources порядок известных источников в сообщении
var knownSources = []string{"pncp", "portal_compras", "compras_gov"}

// ResolveTruncation строгая цепочка приоритетов, выигрывает первое правило:
//  1. есть источник с true -> сообщение по источникам (+ список регионов, если есть)
//  2. есть усеченные регионы -> сообщение по регионам в исходном порядке
//  3. иначе общее сообщение о превышении лимита
//
// Пустая карта или карта из одних false падает в правило 2, а не в правило 1.
func (r Rules) ResolveTruncation(regions []string, details map[string]bool) domain.Truncation {
	regions = uniq(regions)

	if sources := truncatedSources(details); len(sources) > 0 {
		return domain.Truncation{
			Kind:    domain.TruncationPerSource,
			Sources: sources,
			Regions: regions,
			Message: r.loc.TruncationPerSource(sources, regions),
		}
	}

	if len(regions) > 0 {
		return domain.Truncation{
			Kind:    domain.TruncationRegion,
			Regions: regions,
			Message: r.loc.TruncationRegions(regions),
		}
	}

	return domain.Truncation{
		Kind:    domain.TruncationGeneric,
		Message: r.loc.TruncationGeneric(r.th.MaxRecordsLimit),
	}
}

// truncatedSources источники с true: сначала известные, затем остальные по алфавиту
func truncatedSources(details map[string]bool) []string {
	if len(details) == 0 {
		return nil
	}

	var out []string
	known := make(map[string]struct{}, len(knownSources))
	for _, s := range knownSources {
		known[s] = struct{}{}
		if details[s] {
			out = append(out, s)
		}
	}

	var rest []string
	for s, v := range details {
		if _, ok := known[s]; ok || !v {
			continue
		}
		rest = append(rest, s)
	}
	sort.Strings(rest)
	return append(out, rest...)
}
