package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

type fakeProber struct {
	mu   sync.Mutex
	fail bool
}

func (p *fakeProber) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("unreachable")
	}
	return nil
}

func (p *fakeProber) setFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

func TestMonitorTransitions(t *testing.T) {
	convey.Convey("given a monitor with a subscriber", t, func() {
		prober := &fakeProber{fail: true}
		monitor := NewMonitor(prober, time.Hour)
		ctx := context.Background()

		var mu sync.Mutex
		var events []bool
		unsubscribe := monitor.Subscribe(func(online bool) {
			mu.Lock()
			events = append(events, online)
			mu.Unlock()
		})

		convey.Convey("repeated probes with the same result fire no callback", func() {
			convey.So(monitor.CheckNow(ctx), convey.ShouldBeFalse)
			convey.So(monitor.CheckNow(ctx), convey.ShouldBeFalse)
			convey.So(monitor.IsOnline(), convey.ShouldBeFalse)
			convey.So(events, convey.ShouldBeEmpty)
		})

		convey.Convey("each transition fires exactly one callback", func() {
			prober.setFail(false)
			convey.So(monitor.CheckNow(ctx), convey.ShouldBeTrue)
			convey.So(monitor.CheckNow(ctx), convey.ShouldBeTrue)

			prober.setFail(true)
			convey.So(monitor.CheckNow(ctx), convey.ShouldBeFalse)

			convey.So(events, convey.ShouldResemble, []bool{true, false})
		})

		convey.Convey("an unsubscribed callback is no longer invoked", func() {
			unsubscribe()
			prober.setFail(false)
			monitor.CheckNow(ctx)
			convey.So(events, convey.ShouldBeEmpty)
		})
	})
}
