package pin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisFixture(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRunScan_FlagsUnreachablePins(t *testing.T) {
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer alive.Close()

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer gone.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close() // connection refused from here on

	f := newServiceFixture(t)
	healthy := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: alive.URL})
	missing := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: gone.URL})
	unreachable := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: dead.URL})
	inline := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: "data:image/png;base64,aGk="})
	badScheme := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: "htt://nowhere"})
	alreadyBroken := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: dead.URL, IsBroken: true})

	require.NoError(t, f.svc.RunScan(context.Background()))

	assert.False(t, f.repo.getPin(healthy.ID).IsBroken)
	assert.True(t, f.repo.getPin(missing.ID).IsBroken)
	assert.True(t, f.repo.getPin(unreachable.ID).IsBroken)
	assert.False(t, f.repo.getPin(inline.ID).IsBroken, "inline payloads are always reachable")
	assert.True(t, f.repo.getPin(badScheme.ID).IsBroken)
	assert.True(t, f.repo.getPin(alreadyBroken.ID).IsBroken)
}

func TestRunScan_ProbeUsesHead(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
	}))
	defer server.Close()

	f := newServiceFixture(t)
	f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: server.URL})

	require.NoError(t, f.svc.RunScan(context.Background()))
	assert.Equal(t, http.MethodHead, method)
}

func TestRunScan_DeletedPinMidScanSkipped(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	f := newServiceFixture(t)
	f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: dead.URL})
	// A pin deleted between listing and update yields not-found on the
	// broken-flag write; the sweep must carry on without error.
	f.repo.updateErr = ErrNotFound

	assert.NoError(t, f.svc.RunScan(context.Background()))
}

func TestRunScan_SkipsWhenLockHeld(t *testing.T) {
	mr, rdb := newRedisFixture(t)
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	f := newServiceFixture(t)
	p := f.repo.addPin(Pin{Owner: UserInfo{ID: "u"}, ImgLink: dead.URL})
	svc := NewService(f.repo, f.relocator, f.labeler, f.generator, f.producer, rdb, Options{})

	require.NoError(t, mr.Set(scanLockKey, "another-sweep"))
	require.NoError(t, svc.RunScan(context.Background()))

	assert.False(t, f.repo.getPin(p.ID).IsBroken, "a held lock must stop the sweep before any probe")
	held, err := mr.Get(scanLockKey)
	require.NoError(t, err)
	assert.Equal(t, "another-sweep", held)
}

func TestRunScan_ReleasesLockAfterSweep(t *testing.T) {
	mr, rdb := newRedisFixture(t)

	f := newServiceFixture(t)
	svc := NewService(f.repo, f.relocator, f.labeler, f.generator, f.producer, rdb, Options{})

	require.NoError(t, svc.RunScan(context.Background()))
	assert.False(t, mr.Exists(scanLockKey))
}

func TestReleaseScanLock_KeepsForeignToken(t *testing.T) {
	mr, rdb := newRedisFixture(t)

	f := newServiceFixture(t)
	svc := NewService(f.repo, f.relocator, f.labeler, f.generator, f.producer, rdb, Options{}).(*service)

	// A lock that expired and was reacquired by another sweep must survive
	// this sweep's release.
	require.NoError(t, mr.Set(scanLockKey, "another-sweep"))
	svc.releaseScanLock("expired-token")
	held, err := mr.Get(scanLockKey)
	require.NoError(t, err)
	assert.Equal(t, "another-sweep", held)

	require.NoError(t, mr.Set(scanLockKey, "expired-token"))
	svc.releaseScanLock("expired-token")
	assert.False(t, mr.Exists(scanLockKey))
}
