package host_test

import (
	"reflect"
	"testing"

	"waspy/internal/host"
)

type step struct {
	fn   string
	args []any
	want any
}

func TestLanguageSemantics(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		steps []step
	}{
		{
			name: "floor division and modulo",
			src: `
def div(a: int, b: int) -> int:
    return a // b

def mod(a: int, b: int) -> int:
    return a % b

def law(a: int, b: int) -> bool:
    return (a // b) * b + a % b == a
`,
			steps: []step{
				{"div", []any{-7, 2}, int64(-4)},
				{"mod", []any{-7, 2}, int64(1)},
				{"mod", []any{7, -2}, int64(-1)},
				{"law", []any{-7, 2}, true},
				{"law", []any{7, -3}, true},
				{"law", []any{-9, -4}, true},
			},
		},
		{
			name: "and or return operands",
			src: `
def both(a: int, b: int) -> int:
    return a and b

def either(a: int, b: int) -> int:
    return a or b
`,
			steps: []step{
				{"both", []any{0, 5}, int64(0)},
				{"either", []any{0, 5}, int64(5)},
				{"both", []any{3, 5}, int64(5)},
				{"either", []any{3, 5}, int64(3)},
			},
		},
		{
			name: "short circuit skips calls",
			src: `
calls = 0

def touch() -> bool:
    global calls
    calls += 1
    return True

def skipped() -> int:
    if False and touch():
        pass
    if True or touch():
        pass
    return calls

def evaluated() -> int:
    if True and touch():
        pass
    return calls
`,
			steps: []step{
				{"skipped", nil, int64(0)},
				{"evaluated", nil, int64(1)},
			},
		},
		{
			name: "finally runs on every exit",
			src: `
count = 0

def normal() -> None:
    global count
    try:
        pass
    finally:
        count += 1

def early(flag: bool) -> int:
    global count
    try:
        if flag:
            return 1
    finally:
        count += 1
    return 0

def failing() -> None:
    global count
    try:
        raise ValueError("boom")
    finally:
        count += 1

def total() -> int:
    normal()
    early(True)
    try:
        failing()
    except ValueError:
        pass
    return count
`,
			steps: []step{
				{"total", nil, int64(3)},
			},
		},
		{
			name: "handlers match in order",
			src: `
class AppError(Exception):
    pass

class StoreError(AppError):
    pass

def derived_first() -> str:
    try:
        raise StoreError("store")
    except StoreError:
        return "derived"
    except AppError:
        return "base"
    return "none"

def base_first() -> str:
    try:
        raise StoreError("store")
    except AppError:
        return "base"
    except StoreError:
        return "derived"
    return "none"

def arithmetic(a: int, b: int) -> int:
    try:
        return a // b
    except ArithmeticError:
        return -1
`,
			steps: []step{
				{"derived_first", nil, "derived"},
				{"base_first", nil, "base"},
				{"arithmetic", []any{7, 0}, int64(-1)},
				{"arithmetic", []any{7, 2}, int64(3)},
			},
		},
		{
			name: "module global seen by later calls",
			src: `
DEBUG = False

def enable() -> None:
    global DEBUG
    DEBUG = True

def debug_on() -> bool:
    return DEBUG
`,
			steps: []step{
				{"debug_on", nil, false},
				{"enable", nil, nil},
				{"debug_on", nil, true},
			},
		},
		{
			name: "int float round trip",
			src: `
def round_trip(n: int) -> int:
    return int(float(n))

def truncates(x: float) -> int:
    return int(x)
`,
			steps: []step{
				{"round_trip", []any{123456}, int64(123456)},
				{"round_trip", []any{-42}, int64(-42)},
				{"truncates", []any{-2.75}, int64(-2)},
			},
		},
		{
			name: "loops",
			src: `
def factorial(n: int) -> int:
    result = 1
    i = 1
    while i <= n:
        result *= i
        i += 1
    return result

def fibonacci(n: int) -> int:
    a = 0
    b = 1
    i = 0
    while i < n:
        t = a + b
        a = b
        b = t
        i += 1
    return a
`,
			steps: []step{
				{"factorial", []any{5}, int64(120)},
				{"factorial", []any{0}, int64(1)},
				{"fibonacci", []any{10}, int64(55)},
			},
		},
		{
			name: "records and sets",
			src: `
class Rectangle:
    def __init__(self, width: int, height: int):
        self.width = width
        self.height = height

    def area(self) -> int:
        return self.width * self.height

def rect_area() -> int:
    return Rectangle(10, 5).area()

def same_sets() -> bool:
    return {1, 2, 3} == {3, 2, 1}
`,
			steps: []step{
				{"rect_area", nil, int64(50)},
				{"same_sets", nil, true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := load(t, tt.src, host.Options{})
			for _, st := range tt.steps {
				if got := r.call(t, st.fn, st.args...); !reflect.DeepEqual(got, st.want) {
					t.Errorf("%s%v = %#v, want %#v", st.fn, st.args, got, st.want)
				}
			}
		})
	}
}
