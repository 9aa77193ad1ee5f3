package nullable

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFloatArithmeticPropagatesAbsence(t *testing.T) {
	present := FloatFrom(10)
	absent := Float{}

	if got := present.Sub(absent); got.Valid {
		t.Fatalf("present - absent should be absent, got %+v", got)
	}
	if got := absent.Mul(present); got.Valid {
		t.Fatalf("absent * present should be absent, got %+v", got)
	}
	if got := present.Div(absent); got.Valid {
		t.Fatalf("present / absent should be absent, got %+v", got)
	}
}

func TestFloatArithmeticOnPresentValues(t *testing.T) {
	a := FloatFrom(9)
	b := FloatFrom(4)

	if got := a.Sub(b); !got.Valid || got.Value != 5 {
		t.Fatalf("9 - 4 = %+v", got)
	}
	if got := a.Mul(b); !got.Valid || got.Value != 36 {
		t.Fatalf("9 * 4 = %+v", got)
	}
	if got := a.Div(b); !got.Valid || got.Value != 2.25 {
		t.Fatalf("9 / 4 = %+v", got)
	}
}

func TestFloatDivByZeroIsAbsent(t *testing.T) {
	if got := FloatFrom(1).Div(FloatFrom(0)); got.Valid {
		t.Fatalf("division by zero should be absent, got %+v", got)
	}
}

func TestFloatGreaterThan(t *testing.T) {
	cases := []struct {
		name string
		a, b Float
		want bool
	}{
		{"both present true", FloatFrom(3), FloatFrom(2), true},
		{"both present false", FloatFrom(2), FloatFrom(3), false},
		{"equal", FloatFrom(2), FloatFrom(2), false},
		{"left absent", Float{}, FloatFrom(2), false},
		{"right absent", FloatFrom(3), Float{}, false},
	}
	for _, tc := range cases {
		if got := tc.a.GreaterThan(tc.b); got != tc.want {
			t.Errorf("%s: GreaterThan = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFloatJSONRoundTrip(t *testing.T) {
	payload, err := json.Marshal([]Float{FloatFrom(2.5), {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != "[2.5,null]" {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded []Float
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded[0].Valid || decoded[0].Value != 2.5 {
		t.Fatalf("first value lost: %+v", decoded[0])
	}
	if decoded[1].Valid {
		t.Fatalf("null should decode absent: %+v", decoded[1])
	}
}

func TestTimeJSONRoundTrip(t *testing.T) {
	instant := time.Date(2024, 3, 21, 12, 0, 0, 0, time.UTC)
	payload, err := json.Marshal([]Time{TimeFrom(instant), {}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []Time
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded[0].Valid || !decoded[0].Value.Equal(instant) {
		t.Fatalf("instant lost: %+v", decoded[0])
	}
	if decoded[1].Valid {
		t.Fatalf("null should decode absent: %+v", decoded[1])
	}
}
