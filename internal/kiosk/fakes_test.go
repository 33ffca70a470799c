package kiosk

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecobins-kiosk/internal/communication/backend"
	"ecobins-kiosk/internal/models"
)

type fakeAuth struct {
	users map[string]string
	err   error
	calls []string
}

func (f *fakeAuth) CheckTag(_ context.Context, uid string) (*backend.AuthResult, error) {
	f.calls = append(f.calls, uid)
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.users[uid]
	if !ok {
		return &backend.AuthResult{Authorized: false}, nil
	}
	return &backend.AuthResult{Authorized: true, User: backend.UserInfo{Nombre: name}}, nil
}

type fakeCapacity struct {
	allowed bool
	calls   int
}

func (f *fakeCapacity) OpenAllowed(context.Context) bool {
	f.calls++
	return f.allowed
}

type published struct {
	topic   string
	payload string
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, string(payload)})
	return nil
}

func (f *fakePublisher) on(topic string) []string {
	var out []string
	for _, m := range f.msgs {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

type fakeActuator struct {
	pulses []models.ColorCode
	idles  int
}

func (f *fakeActuator) Pulse(_ context.Context, code models.ColorCode) error {
	if !code.Valid() {
		return errors.New("código inválido")
	}
	f.pulses = append(f.pulses, code)
	return nil
}

func (f *fakeActuator) Idle(context.Context) error {
	f.idles++
	return nil
}

type fakeDisplay struct {
	lines [][2]string
}

func (f *fakeDisplay) Show(l1, l2 string) {
	f.lines = append(f.lines, [2]string{l1, l2})
}

func (f *fakeDisplay) last() [2]string {
	if len(f.lines) == 0 {
		return [2]string{}
	}
	return f.lines[len(f.lines)-1]
}

type fakeJournal struct {
	entries []models.JournalEntry
}

func (f *fakeJournal) Record(e models.JournalEntry) {
	f.entries = append(f.entries, e)
}

var testTopics = Topics{
	Motor:    models.DEFAULT_TOPIC_MOTOR,
	Colors:   models.DEFAULT_TOPIC_COLORS,
	QR:       models.DEFAULT_TOPIC_QR,
	Sensors:  models.DEFAULT_TOPIC_SENSORS,
	Access:   models.DEFAULT_TOPIC_ACCESS,
	Recycled: models.DEFAULT_TOPIC_RECYCLED,
}

type harness struct {
	c        *Controller
	auth     *fakeAuth
	capacity *fakeCapacity
	pub      *fakePublisher
	act      *fakeActuator
	disp     *fakeDisplay
	journal  *fakeJournal
	clock    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		auth:     &fakeAuth{users: map[string]string{"abc123": "Ana", "0a1b2c3d": "Luis"}},
		capacity: &fakeCapacity{allowed: true},
		pub:      &fakePublisher{},
		act:      &fakeActuator{},
		disp:     &fakeDisplay{},
		journal:  &fakeJournal{},
		clock:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	h.c = NewController(Settings{BinID: 1, Topics: testTopics}, Deps{
		Auth:      h.auth,
		Capacity:  h.capacity,
		Publisher: h.pub,
		Actuator:  h.act,
		Display:   h.disp,
		Journal:   h.journal,
	})
	h.c.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) login(t *testing.T, uid string) {
	t.Helper()
	if out := h.c.TagScanned(context.Background(), uid); out != models.TagLogin {
		t.Fatalf("login de %s: se esperaba LOGIN, se obtuvo %s", uid, out)
	}
}

func (h *harness) msg(topic, payload string) {
	h.c.Dispatch(context.Background(), topic, []byte(payload))
}

func (h *harness) press() {
	h.c.HandleButton(context.Background())
}
