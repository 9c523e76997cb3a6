package engine

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
)

// ListenStateResilient подписка на сигналы вида "id:on|off" поверх infra.ListenResilient
func ListenStateResilient(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func() error, // синхронизация при каждом (пере)подключении
	onMessage func(id string, status bool),
) {
	infra.ListenResilient(ctx, rdb, logger, channel, onReconnect, func(payload string) {
		id, status, ok := ParseSignal(payload)
		if !ok {
			logger.Error("invalid signal format", zap.String("payload", payload))
			return
		}
		onMessage(id, status)
	})
}

// ParseSignal разбирает "id:on", "id:off" (и "true"/"false")
func ParseSignal(payload string) (id string, status bool, ok bool) {
	i := strings.LastIndex(payload, ":")
	if i <= 0 || i == len(payload)-1 {
		return "", false, false
	}
	id, flag := payload[:i], payload[i+1:]
	switch flag {
	case "on", "true":
		return id, true, true
	case "off", "false":
		return id, false, true
	}
	return "", false, false
}

// Signal обратная сторона ParseSignal
func Signal(id string, on bool) string {
	if on {
		return id + ":on"
	}
	return id + ":off"
}
