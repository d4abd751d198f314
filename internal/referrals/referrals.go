package referrals

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
	"github.com/imrishuroy/merch-order-admin/internal/orders"
)

// Kind selects the family of codes: referrals or coupons.
type Kind string

const (
	KindReferral Kind = "referral"
	KindCoupon   Kind = "coupon"
)

const (
	codePrefix   = "TXC-"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 8
)

// Prefix returns the blob prefix that holds records of kind k.
func (k Kind) Prefix() string {
	if k == KindCoupon {
		return "coupons/"
	}
	return "referrals/"
}

// Key returns the blob key of a code.
func (k Kind) Key(code string) string {
	if k == KindCoupon {
		return "coupons/coupon-" + code + ".json"
	}
	return "referrals/ref-" + code + ".json"
}

// Discount is the optional discount attached to a code.
type Discount struct {
	Value float64
	Type  string
}

// Record is a stored referral or coupon. Records are never updated.
type Record struct {
	Code          string          `json:"code"`
	Referrer      orders.Referrer `json:"referrer"`
	DiscountValue *float64        `json:"discountValue,omitempty"`
	DiscountType  string          `json:"discountType,omitempty"`
	CreatedAt     string          `json:"createdAt"`
}

// LeaderboardEntry is one referrer's accepted-order count.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Dept  string `json:"dept"`
	Count int    `json:"count"`
}

// OrderLister supplies normalized orders for the leaderboard.
type OrderLister interface {
	List(ctx context.Context) ([]orders.Order, error)
}

// Service issues and lists codes.
type Service struct {
	blobs   blob.Store
	orders  OrderLister
	log     *zap.Logger
	nowFunc func() time.Time
	newCode func() (string, error)
}

// NewService returns a Service backed by blobs.
func NewService(blobs blob.Store, lister OrderLister, log *zap.Logger) *Service {
	return &Service{
		blobs:   blobs,
		orders:  lister,
		log:     log,
		nowFunc: time.Now,
		newCode: GenerateCode,
	}
}

// GenerateCode returns TXC- followed by 8 random characters from [A-Z0-9].
// Uniqueness against stored codes is not checked.
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(len(codePrefix) + codeLength)
	sb.WriteString(codePrefix)
	size := big.NewInt(int64(len(codeAlphabet)))
	for range codeLength {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Issue creates and persists a new code for referrer.
func (s *Service) Issue(ctx context.Context, kind Kind, referrer orders.Referrer, discount *Discount) (*Record, error) {
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	rec := &Record{
		Code:      code,
		Referrer:  referrer,
		CreatedAt: s.nowFunc().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if discount != nil {
		if discount.Value > 0 {
			v := discount.Value
			rec.DiscountValue = &v
		}
		rec.DiscountType = discount.Type
	}

	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", kind, err)
	}
	if err := s.blobs.Put(ctx, kind.Key(code), body, blob.ContentTypeJSON); err != nil {
		return nil, fmt.Errorf("put %s %s: %w", kind, code, err)
	}

	logging.WithContext(ctx, s.log).Info("code issued",
		zap.String("kind", string(kind)), zap.String("code", code), zap.String("referrer", referrer.Name))
	return rec, nil
}

// List returns every parseable record of kind, newest first. Records that
// cannot be read or decoded are logged and skipped.
func (s *Service) List(ctx context.Context, kind Kind) ([]Record, error) {
	keys, err := s.blobs.List(ctx, kind.Prefix())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}

	out := make([]Record, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}
		rec, err := s.read(ctx, key)
		if err != nil {
			logging.WithContext(ctx, s.log).Warn("skipping unreadable record", zap.String("key", key), zap.Error(err))
			continue
		}
		out = append(out, *rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return parseTime(out[i].CreatedAt).After(parseTime(out[j].CreatedAt))
	})
	return out, nil
}

func (s *Service) read(ctx context.Context, key string) (*Record, error) {
	obj, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(obj.Body, &rec); err != nil {
		return nil, err
	}
	if rec.Code == "" {
		return nil, errors.New("record has no code")
	}
	return &rec, nil
}

// Leaderboard counts accepted orders per referrer name, highest first.
// Ties keep the order in which referrers were first seen.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	list, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(list), nil
}

const unknownReferrer = "Unknown"

// Rank builds the leaderboard from a list of normalized orders.
func Rank(list []orders.Order) []LeaderboardEntry {
	index := map[string]int{}
	var entries []LeaderboardEntry
	for _, o := range list {
		if o.Status != orders.StatusAccepted || o.Referral == nil {
			continue
		}
		name, dept := unknownReferrer, unknownReferrer
		if r := o.Referral.Referrer; r != nil {
			if r.Name != "" {
				name = r.Name
			}
			if r.Dept != "" {
				dept = r.Dept
			}
		}
		i, ok := index[name]
		if !ok {
			i = len(entries)
			index[name] = i
			entries = append(entries, LeaderboardEntry{Name: name, Dept: dept})
		}
		entries[i].Count++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	return entries
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
