package pin

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const scanLockKey = "pin:scan:lock"

// Deletes the lock only while it still holds this sweep's token, so an
// expired lock reacquired by another sweep is never released from here.
var scanUnlockScript = redis.NewScript(
	`if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`,
)

// RunScan sweeps every non-broken pin, probes its image link, and flags
// unreachable ones. Each pin's check is isolated: probe and update
// failures are logged and the sweep moves on. A pin deleted mid-scan
// yields not-found on update and is skipped.
func (s *service) RunScan(ctx context.Context) error {
	token := uuid.New().String()
	if s.rdb != nil {
		acquired, err := s.rdb.SetNX(ctx, scanLockKey, token, s.opts.ScanLockTTL).Result()
		if err != nil {
			log.Printf("scan lock error: %v", err)
		} else if !acquired {
			log.Println("scan already running, skipping")
			return nil
		} else {
			defer s.releaseScanLock(token)
		}
	}

	pins, err := s.repo.FindLivePins(ctx)
	if err != nil {
		return err
	}

	flagged := 0
	for _, p := range pins {
		if s.linkReachable(ctx, p.ImgLink) {
			continue
		}

		if _, err := s.repo.UpdatePinFields(ctx, p.ID, bson.M{"isBroken": true}); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			log.Printf("broken flag update failed for pin %s: %v", p.ID.Hex(), err)
			continue
		}
		flagged++
	}

	log.Printf("broken link scan finished: %d of %d pins flagged", flagged, len(pins))
	return nil
}

func (s *service) releaseScanLock(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := scanUnlockScript.Run(ctx, s.rdb, []string{scanLockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("scan lock release failed: %v", err)
	}
}

// linkReachable HEAD-probes http(s) links. Inline data URIs are always
// reachable; anything else counts as broken.
func (s *service) linkReachable(ctx context.Context, link string) bool {
	if strings.HasPrefix(link, "data:") {
		return true
	}
	if !isHTTPLink(link) {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return false
	}

	resp, err := s.opts.ProbeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400
}
