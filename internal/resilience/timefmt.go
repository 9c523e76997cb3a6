package resilience

import (
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// Elapsed возраст метки относительно now; будущее (рассинхрон часов) считается нулем
func Elapsed(ts, now time.Time) time.Duration {
	d := now.Sub(ts)
	if d < 0 {
		return 0
	}
	return d
}

// RelativeAge "agora", "há N minutos", "há N horas", "há N dias".
// Только целочисленное округление вниз: ровно 60 минут это "há 1 hora".
func (r Rules) RelativeAge(ts, now time.Time) string {
	return r.loc.RelativeAge(Elapsed(ts, now))
}

// FreshnessTier явная подсказка бэкенда всегда главнее; по возрасту решаем
// только когда подсказки нет.
func (r Rules) FreshnessTier(ts time.Time, hint domain.CacheStatus, now time.Time) domain.FreshnessTier {
	switch hint {
	case domain.CacheLive:
		return domain.FreshnessLive
	case domain.CacheFresh, domain.CacheStatus(domain.FreshnessCachedFresh):
		return domain.FreshnessCachedFresh
	case domain.CacheStale, domain.CacheStatus(domain.FreshnessCachedStale):
		return domain.FreshnessCachedStale
	}

	if Elapsed(ts, now) < r.th.CacheStaleAfter {
		return domain.FreshnessCachedFresh
	}
	return domain.FreshnessCachedStale
}
