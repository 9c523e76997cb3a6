package resilience

import (
	"fmt"
	"strings"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale все строки, которые производит движок. Классификаторы не знают о языке,
// они только выбирают, какую функцию локали вызвать.
type Locale interface {
	Tag() language.Tag
	RelativeAge(elapsed time.Duration) string
	CoverageLabel(processed, total int) string
	DetailTooltip(d domain.UFStatusDetail) string
	SetTooltip(uf string, status domain.VisualStatus) string
	SourceName(key string) string
	TruncationPerSource(sources, regions []string) string
	TruncationRegions(regions []string) string
	TruncationGeneric(limit int) string
	RefreshClause(kind domain.ClauseKind, n int) string
	RefreshTotal(n int) string
	JoinList(items []string) string
	Banner(v domain.BannerVariant, coverageLabel string) (title, msg string)
	FailureGuidance(reason FailureReason) string
}

// FailureReason почему шлюз сам построил empty_failure вместо ответа бэкенда
type FailureReason string

const (
	FailureUpstream    FailureReason = "upstream"
	FailureThrottled   FailureReason = "throttled"
	FailureCircuitOpen FailureReason = "circuit_open"
	FailureTimeout     FailureReason = "timeout"
)

// LocaleFor возвращает локаль по тегу. Пока поставляется только pt-BR.
func LocaleFor(tag string) (Locale, error) {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return nil, fmt.Errorf("locale: parse tag %q: %w", tag, err)
	}
	base, _ := t.Base()
	if base.String() != "pt" {
		return nil, fmt.Errorf("locale: %s is not supported", t)
	}
	return NewPtBR(), nil
}

// PtBR локаль португальского (Бразилия)
type PtBR struct {
	p *message.Printer
}

func NewPtBR() PtBR {
	return PtBR{p: message.NewPrinter(language.BrazilianPortuguese)}
}

func (l PtBR) Tag() language.Tag { return language.BrazilianPortuguese }

// num форматирует число с разделителем тысяч ("250.000")
func (l PtBR) num(n int) string {
	return l.p.Sprintf("%d", n)
}

// plural единственное число только при n == 1
func (l PtBR) plural(n int, one, many string) string {
	if n == 1 {
		return l.num(n) + " " + one
	}
	return l.num(n) + " " + many
}

func (l PtBR) RelativeAge(elapsed time.Duration) string {
	if elapsed < time.Minute {
		return "agora"
	}
	if elapsed < time.Hour {
		return "há " + l.plural(int(elapsed/time.Minute), "minuto", "minutos")
	}
	if elapsed < 24*time.Hour {
		return "há " + l.plural(int(elapsed/time.Hour), "hora", "horas")
	}
	return "há " + l.plural(int(elapsed/(24*time.Hour)), "dia", "dias")
}

func (l PtBR) CoverageLabel(processed, total int) string {
	if total == 0 {
		return "Cobertura completa"
	}
	return fmt.Sprintf("%s de %s estados processados", l.num(processed), l.num(total))
}

func (l PtBR) DetailTooltip(d domain.UFStatusDetail) string {
	switch d.Status {
	case domain.UFStatusOK:
		return d.UF + ": " + l.plural(d.ResultCount, "resultado", "resultados")
	case domain.UFStatusTimeout:
		return d.UF + ": tempo esgotado"
	case domain.UFStatusError:
		return d.UF + ": erro na consulta"
	default:
		return d.UF + ": falha"
	}
}

func (l PtBR) SetTooltip(uf string, status domain.VisualStatus) string {
	if status == domain.VisualOK {
		return uf + ": processado"
	}
	return uf + ": falhou"
}

var ptBRSources = map[string]string{
	"pncp":           "PNCP",
	"portal_compras": "Portal de Compras Públicas",
	"compras_gov":    "ComprasGov",
}

func (l PtBR) SourceName(key string) string {
	if name, ok := ptBRSources[key]; ok {
		return name
	}
	return key
}

const refineHint = "Refine os filtros para ver todos os resultados."

func (l PtBR) TruncationPerSource(sources, regions []string) string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, l.SourceName(s))
	}

	var b strings.Builder
	if len(names) == 1 {
		b.WriteString("A fonte " + names[0] + " atingiu o limite de registros")
	} else {
		b.WriteString("As fontes " + l.JoinList(names) + " atingiram o limite de registros")
	}
	if len(regions) > 0 {
		b.WriteString(" (estados afetados: " + strings.Join(regions, ", ") + ")")
	}
	b.WriteString(". " + refineHint)
	return b.String()
}

func (l PtBR) TruncationRegions(regions []string) string {
	return "Resultados limitados nos estados " + strings.Join(regions, ", ") + ". " + refineHint
}

func (l PtBR) TruncationGeneric(limit int) string {
	return "A busca excedeu o limite de " + l.num(limit) + " registros. " + refineHint
}

func (l PtBR) RefreshClause(kind domain.ClauseKind, n int) string {
	switch kind {
	case domain.ClauseNew:
		return l.plural(n, "nova", "novas")
	case domain.ClauseUpdated:
		return l.plural(n, "atualizada", "atualizadas")
	default:
		return l.plural(n, "removida", "removidas")
	}
}

func (l PtBR) RefreshTotal(n int) string {
	return l.plural(n, "oportunidade", "oportunidades")
}

// JoinList "a", "a e b", "a, b e c"
func (l PtBR) JoinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " e " + items[len(items)-1]
}

func (l PtBR) Banner(v domain.BannerVariant, coverageLabel string) (string, string) {
	switch v {
	case domain.BannerOperational:
		return "Dados atualizados", ""
	case domain.BannerPartialCoverage:
		return "Cobertura parcial", coverageLabel + ". Alguns estados não responderam."
	case domain.BannerCriticalCoverage:
		return "Cobertura crítica", coverageLabel + ". Os resultados podem estar incompletos."
	case domain.BannerCachedFresh:
		return "Resultados salvos", "Exibindo resultados salvos recentemente."
	case domain.BannerCachedStale:
		return "Resultados desatualizados", "Exibindo resultados salvos. Atualize para buscar dados novos."
	case domain.BannerDegraded:
		return "Fontes instáveis", "Algumas fontes de dados falharam. " + coverageLabel + "."
	default:
		return "Busca indisponível", "Não foi possível consultar as fontes de dados. Tente novamente em alguns minutos."
	}
}

func (l PtBR) FailureGuidance(reason FailureReason) string {
	switch reason {
	case FailureThrottled:
		return "As fontes de dados estão sobrecarregadas. Aguarde alguns instantes e tente novamente."
	case FailureCircuitOpen:
		return "As fontes de dados estão instáveis no momento. Tentaremos novamente em breve."
	case FailureTimeout:
		return "A consulta demorou mais que o esperado. Tente novamente com menos estados."
	default:
		return "Não foi possível consultar as fontes de dados. Tente novamente em alguns minutos."
	}
}
