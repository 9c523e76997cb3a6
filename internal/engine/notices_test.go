package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
)

func testNotice(id string) domain.RefreshNotice {
	return domain.RefreshNotice{
		SearchID:   id,
		Info:       domain.RefreshAvailableInfo{TotalLive: 10, NewCount: 2},
		Summary:    domain.DisplaySummary{Text: "2 novas"},
		DetectedAt: testNow,
	}
}

func TestNoticeBoardPutAccept(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewNoticeBoard(rdb, nil, zap.NewNop())
	ctx := context.Background()

	if err := b.Put(ctx, testNotice("s-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if mr.HGet(infra.RedisKeyRefreshNotices, "s-1") == "" {
		t.Fatalf("notice not stored in hash")
	}
	n, ok := b.Get("s-1")
	if !ok || n.Summary.Text != "2 novas" {
		t.Fatalf("Get = %+v, %v", n, ok)
	}

	accepted, err := b.Accept(ctx, "s-1")
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Info.NewCount != 2 {
		t.Fatalf("accepted = %+v", accepted)
	}
	if _, ok := b.Get("s-1"); ok {
		t.Fatalf("notice still pending after accept")
	}
	if mr.HGet(infra.RedisKeyRefreshNotices, "s-1") != "" {
		t.Fatalf("notice still in hash")
	}
	if _, err := b.Accept(ctx, "s-1"); !errors.Is(err, domain.ErrNoticeNotFound) {
		t.Fatalf("second Accept err = %v", err)
	}
}

func TestNoticeBoardInitSkipsCorrupt(t *testing.T) {
	mr, rdb := newRedis(t)
	data, _ := json.Marshal(testNotice("s-1"))
	mr.HSet(infra.RedisKeyRefreshNotices, "s-1", string(data))
	mr.HSet(infra.RedisKeyRefreshNotices, "s-bad", "{not json")

	b := NewNoticeBoard(rdb, nil, zap.NewNop())
	if err := b.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, ok := b.Get("s-1"); !ok {
		t.Fatalf("s-1 not loaded")
	}
	if _, ok := b.Get("s-bad"); ok {
		t.Fatalf("corrupt notice loaded")
	}
}

func TestNoticeBoardHandleEvents(t *testing.T) {
	_, rdb := newRedis(t)
	b := NewNoticeBoard(rdb, nil, zap.NewNop())

	n := testNotice("s-1")
	put, _ := json.Marshal(noticeEvent{Op: noticePut, SearchID: "s-1", Notice: &n})
	b.handle(string(put))
	if _, ok := b.Get("s-1"); !ok {
		t.Fatalf("put event not applied")
	}

	drop, _ := json.Marshal(noticeEvent{Op: noticeDrop, SearchID: "s-1"})
	b.handle(string(drop))
	if _, ok := b.Get("s-1"); ok {
		t.Fatalf("drop event not applied")
	}

	b.handle("garbage")
}

func TestNoticeBoardInitRestoresAfterRedisLoss(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewNoticeBoard(rdb, nil, zap.NewNop())
	ctx := context.Background()

	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !mr.Exists(infra.RedisKeyNoticesSeeded) {
		t.Fatalf("seed marker not set")
	}
	if err := b.Put(ctx, testNotice("s-1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Рестарт Redis без персистентности: пропали и хеш, и маркер, и блокировка
	mr.FlushAll()

	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init after flush: %v", err)
	}
	if mr.HGet(infra.RedisKeyRefreshNotices, "s-1") == "" {
		t.Fatalf("notice not restored to hash")
	}
	if _, ok := b.Get("s-1"); !ok {
		t.Fatalf("notice lost from memory")
	}
}

func TestNoticeBoardInitDoesNotResurrectAccepted(t *testing.T) {
	mr, rdb := newRedis(t)
	b := NewNoticeBoard(rdb, nil, zap.NewNop())
	ctx := context.Background()

	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Событие drop от другого шлюза пропущено: в памяти уведомление есть, в хеше нет
	n := testNotice("s-1")
	put, _ := json.Marshal(noticeEvent{Op: noticePut, SearchID: "s-1", Notice: &n})
	b.handle(string(put))
	mr.Del(infra.GetWarmupLockKey("notices"))

	if err := b.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if mr.HGet(infra.RedisKeyRefreshNotices, "s-1") != "" {
		t.Fatalf("accepted notice written back to hash")
	}
	if _, ok := b.Get("s-1"); ok {
		t.Fatalf("accepted notice still pending")
	}
}
