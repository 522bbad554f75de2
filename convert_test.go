package ygggo_cassandra

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRegistry_ResolveString(t *testing.T) {
	reg := NewRegistry()
	wv, err := reg.Resolve("hello", 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wv.Type != WireText || wv.Value != "hello" {
		t.Fatalf("got %v %v", wv.Type, wv.Value)
	}
}

func TestRegistry_ResolveTimeDefaultsToTimestamp(t *testing.T) {
	reg := NewRegistry()
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	wv, err := reg.Resolve(now, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wv.Type != WireTimestamp {
		t.Fatalf("expected timestamp, got %v", wv.Type)
	}
	if !wv.Value.(time.Time).Equal(now) {
		t.Fatalf("timestamp value changed: %v", wv.Value)
	}
}

func TestRegistry_OverrideUsesDateRule(t *testing.T) {
	reg := NewRegistry()
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	wv, err := reg.Resolve(now, WireDate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wv.Type != WireDate {
		t.Fatalf("expected date, got %v", wv.Type)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !wv.Value.(time.Time).Equal(want) {
		t.Fatalf("expected day-truncated %v, got %v", want, wv.Value)
	}
}

func TestRegistry_DateRoundTripDayGranularity(t *testing.T) {
	reg := NewRegistry()
	in := time.Date(2024, 7, 1, 23, 59, 59, 0, time.UTC)
	wv, err := reg.Resolve(in, WireDate)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	back, err := reg.Decode(wv)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if !back.(time.Time).Equal(want) {
		t.Fatalf("round trip lost the day: %v", back)
	}
}

func TestRegistry_UUIDRoundTrip(t *testing.T) {
	reg := NewRegistry()
	id := uuid.New()
	wv, err := reg.Resolve(id, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wv.Type != WireUUID {
		t.Fatalf("expected uuid, got %v", wv.Type)
	}
	back, err := reg.Decode(wv)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.(uuid.UUID) != id {
		t.Fatalf("uuid changed: %v != %v", back, id)
	}
}

func TestRegistry_OptionalPresentBindsAsUnwrapped(t *testing.T) {
	reg := NewRegistry()
	direct, err := reg.Resolve("paris", 0)
	if err != nil {
		t.Fatalf("Resolve direct: %v", err)
	}
	wrapped, err := reg.Resolve(Some("paris"), 0)
	if err != nil {
		t.Fatalf("Resolve wrapped: %v", err)
	}
	if wrapped != direct {
		t.Fatalf("Some(v) bound differently: %v vs %v", wrapped, direct)
	}
}

func TestRegistry_OptionalAbsentBindsNull(t *testing.T) {
	reg := NewRegistry()
	wv, err := reg.Resolve(None(), 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if wv.Value != nil {
		t.Fatalf("absent optional should bind NULL, got %v", wv.Value)
	}
	var sp *string
	wv, err = reg.Resolve(sp, 0)
	if err != nil {
		t.Fatalf("Resolve nil pointer: %v", err)
	}
	if wv.Value != nil {
		t.Fatalf("nil pointer should bind NULL, got %v", wv.Value)
	}
}

func TestRegistry_UnsupportedConversion(t *testing.T) {
	reg := NewRegistry()
	type opaque struct{ n int }
	_, err := reg.Resolve(opaque{1}, 0)
	if !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("expected ErrUnsupportedConversion, got %v", err)
	}
	// an override with no matching rule fails the same way
	_, err = reg.Resolve("text", WireDate)
	if !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("expected ErrUnsupportedConversion for override, got %v", err)
	}
}

type zoneArg struct{ name string }

func TestRegistry_RegisterReplacesWholeSet(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Resolve(zoneArg{"Europe/Paris"}, 0); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("zoneArg should not resolve before registration: %v", err)
	}

	custom := append(DefaultRules(), ConversionRule{
		Source: reflect.TypeOf(zoneArg{}),
		Wire:   WireText,
		Encode: func(v any) (any, error) { return v.(zoneArg).name, nil },
	})
	reg.Register(custom)

	wv, err := reg.Resolve(zoneArg{"Europe/Paris"}, 0)
	if err != nil {
		t.Fatalf("Resolve after register: %v", err)
	}
	if wv.Value != "Europe/Paris" {
		t.Fatalf("custom rule not applied: %v", wv.Value)
	}

	// replacing with a set that drops the rule removes it atomically
	reg.Register(DefaultRules())
	if _, err := reg.Resolve(zoneArg{"x"}, 0); !errors.Is(err, ErrUnsupportedConversion) {
		t.Fatalf("old rule survived a whole-set replace: %v", err)
	}
}

func TestRegistry_ConcurrentResolveDuringSwap(t *testing.T) {
	reg := NewRegistry()
	ruleA := append(DefaultRules(), ConversionRule{
		Source: reflect.TypeOf(zoneArg{}),
		Wire:   WireText,
		Encode: func(v any) (any, error) { return "A", nil },
	})
	ruleB := append(DefaultRules(), ConversionRule{
		Source: reflect.TypeOf(zoneArg{}),
		Wire:   WireText,
		Encode: func(v any) (any, error) { return "B", nil },
	})
	reg.Register(ruleA)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				wv, err := reg.Resolve(zoneArg{}, 0)
				if err != nil {
					t.Errorf("Resolve: %v", err)
					return
				}
				// readers must see a full rule set: always A or B
				if wv.Value != "A" && wv.Value != "B" {
					t.Errorf("partial rule set observed: %v", wv.Value)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			reg.Register(ruleB)
		} else {
			reg.Register(ruleA)
		}
	}
	close(stop)
	wg.Wait()
}
