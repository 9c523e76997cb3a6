package resilience

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

func TestResolveTruncationPerSourceWithRegions(t *testing.T) {
	got := testRules().ResolveTruncation([]string{"SP", "RJ"}, map[string]bool{"pncp": true})

	if got.Kind != domain.TruncationPerSource {
		t.Fatalf("Kind = %v, want per_source", got.Kind)
	}
	for _, want := range []string{"PNCP", "SP", "RJ"} {
		if !strings.Contains(got.Message, want) {
			t.Errorf("Message = %q, missing %q", got.Message, want)
		}
	}
	if !reflect.DeepEqual(got.Regions, []string{"SP", "RJ"}) {
		t.Fatalf("Regions = %v, want [SP RJ]", got.Regions)
	}
}

func TestResolveTruncationGeneric(t *testing.T) {
	got := testRules().ResolveTruncation(nil, map[string]bool{})
	if got.Kind != domain.TruncationGeneric {
		t.Fatalf("Kind = %v, want generic", got.Kind)
	}
	if !strings.Contains(got.Message, "250.000") {
		t.Fatalf("Message = %q, want the 250.000 limit", got.Message)
	}
}

func TestResolveTruncationGenericUsesConfiguredLimit(t *testing.T) {
	r := NewRules(NewPtBR(), Thresholds{MaxRecordsLimit: 1000})
	got := r.ResolveTruncation(nil, nil)
	if !strings.Contains(got.Message, "1.000 registros") {
		t.Fatalf("Message = %q", got.Message)
	}
}

func TestResolveTruncationFalseOnlyMapFallsToRegions(t *testing.T) {
	tests := []struct {
		name    string
		details map[string]bool
	}{
		{"nil", nil},
		{"empty", map[string]bool{}},
		{"all false", map[string]bool{"pncp": false, "compras_gov": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testRules().ResolveTruncation([]string{"MG"}, tt.details)
			if got.Kind != domain.TruncationRegion {
				t.Fatalf("Kind = %v, want region", got.Kind)
			}
			if !strings.Contains(got.Message, "MG") {
				t.Fatalf("Message = %q, missing MG", got.Message)
			}
		})
	}
}

func TestResolveTruncationRegionOrderPreserved(t *testing.T) {
	got := testRules().ResolveTruncation([]string{"RJ", "SP", "RJ", "AC"}, nil)
	if !reflect.DeepEqual(got.Regions, []string{"RJ", "SP", "AC"}) {
		t.Fatalf("Regions = %v", got.Regions)
	}
	if !strings.Contains(got.Message, "RJ, SP, AC") {
		t.Fatalf("Message = %q", got.Message)
	}
}

func TestResolveTruncationRegionToGenericOnlyWhenEmpty(t *testing.T) {
	r := testRules()
	if got := r.ResolveTruncation([]string{"SP"}, nil).Kind; got != domain.TruncationRegion {
		t.Fatalf("one region -> %v, want region", got)
	}
	if got := r.ResolveTruncation([]string{}, nil).Kind; got != domain.TruncationGeneric {
		t.Fatalf("no regions -> %v, want generic", got)
	}
}

func TestResolveTruncationMultipleSources(t *testing.T) {
	details := map[string]bool{
		"zeta_feed":      true,
		"compras_gov":    true,
		"pncp":           true,
		"portal_compras": false,
	}
	got := testRules().ResolveTruncation(nil, details)

	if !reflect.DeepEqual(got.Sources, []string{"pncp", "compras_gov", "zeta_feed"}) {
		t.Fatalf("Sources = %v", got.Sources)
	}
	want := "As fontes PNCP, ComprasGov e zeta_feed atingiram o limite de registros. " +
		"Refine os filtros para ver todos os resultados."
	if got.Message != want {
		t.Fatalf("Message = %q, want %q", got.Message, want)
	}
}
