package jni

import "fmt"

// Conversion helpers referenced by generated code. Each ABI type has four
// directions: TryGoX / GoX (host value to Go value, fallible and infallible)
// and TryJavaX / JavaX (Go value to host value). TryXResult / XResult narrow
// an untyped host call result to the ABI type. The infallible forms panic on
// failure; generated unchecked-mode code opts into that explicitly.

// --- string ---

func TryGoString(e *Env, ref StringRef) (string, error) {
	s, err := e.rt.GetString(ref)
	if err != nil {
		return "", fmt.Errorf("converting host string: %w", err)
	}
	return s, nil
}

func GoString(e *Env, ref StringRef) string {
	s, err := TryGoString(e, ref)
	if err != nil {
		panic(err)
	}
	return s
}

func TryJavaString(e *Env, s string) (StringRef, error) {
	ref, err := e.rt.NewString(s)
	if err != nil {
		return 0, fmt.Errorf("converting to host string: %w", err)
	}
	return ref, nil
}

func JavaString(e *Env, s string) StringRef {
	ref, err := TryJavaString(e, s)
	if err != nil {
		panic(err)
	}
	return ref
}

// --- bool ---

func TryGoBool(e *Env, ref BoolRef) (bool, error) { return ref != 0, nil }
func GoBool(e *Env, ref BoolRef) bool             { return ref != 0 }

func TryJavaBool(e *Env, v bool) (BoolRef, error) {
	if v {
		return 1, nil
	}
	return 0, nil
}

func JavaBool(e *Env, v bool) BoolRef {
	r, _ := TryJavaBool(e, v)
	return r
}

// --- numerics ---

func TryGoByte(e *Env, ref ByteRef) (int8, error)       { return int8(ref), nil }
func GoByte(e *Env, ref ByteRef) int8                   { return int8(ref) }
func TryJavaByte(e *Env, v int8) (ByteRef, error)       { return ByteRef(v), nil }
func JavaByte(e *Env, v int8) ByteRef                   { return ByteRef(v) }
func TryGoShort(e *Env, ref ShortRef) (int16, error)    { return int16(ref), nil }
func GoShort(e *Env, ref ShortRef) int16                { return int16(ref) }
func TryJavaShort(e *Env, v int16) (ShortRef, error)    { return ShortRef(v), nil }
func JavaShort(e *Env, v int16) ShortRef                { return ShortRef(v) }
func TryGoChar(e *Env, ref CharRef) (uint16, error)     { return uint16(ref), nil }
func GoChar(e *Env, ref CharRef) uint16                 { return uint16(ref) }
func TryJavaChar(e *Env, v uint16) (CharRef, error)     { return CharRef(v), nil }
func JavaChar(e *Env, v uint16) CharRef                 { return CharRef(v) }
func TryGoInt(e *Env, ref IntRef) (int32, error)        { return int32(ref), nil }
func GoInt(e *Env, ref IntRef) int32                    { return int32(ref) }
func TryJavaInt(e *Env, v int32) (IntRef, error)        { return IntRef(v), nil }
func JavaInt(e *Env, v int32) IntRef                    { return IntRef(v) }
func TryGoLong(e *Env, ref LongRef) (int64, error)      { return int64(ref), nil }
func GoLong(e *Env, ref LongRef) int64                  { return int64(ref) }
func TryJavaLong(e *Env, v int64) (LongRef, error)      { return LongRef(v), nil }
func JavaLong(e *Env, v int64) LongRef                  { return LongRef(v) }
func TryGoFloat(e *Env, ref FloatRef) (float32, error)  { return float32(ref), nil }
func GoFloat(e *Env, ref FloatRef) float32              { return float32(ref) }
func TryJavaFloat(e *Env, v float32) (FloatRef, error)  { return FloatRef(v), nil }
func JavaFloat(e *Env, v float32) FloatRef              { return FloatRef(v) }
func TryGoDouble(e *Env, ref DoubleRef) (float64, error) { return float64(ref), nil }
func GoDouble(e *Env, ref DoubleRef) float64             { return float64(ref) }
func TryJavaDouble(e *Env, v float64) (DoubleRef, error) { return DoubleRef(v), nil }
func JavaDouble(e *Env, v float64) DoubleRef             { return DoubleRef(v) }

// --- host call results ---

func resultErr(want string, v any) error {
	return fmt.Errorf("host call returned %T, want %s", v, want)
}

func TryStringResult(e *Env, v any) (string, error) {
	ref, ok := v.(StringRef)
	if !ok {
		return "", resultErr("StringRef", v)
	}
	return TryGoString(e, ref)
}

func StringResult(e *Env, v any) string {
	s, err := TryStringResult(e, v)
	if err != nil {
		panic(err)
	}
	return s
}

func TryObjectResult(e *Env, v any) (ObjectRef, error) {
	ref, ok := v.(ObjectRef)
	if !ok {
		return 0, resultErr("ObjectRef", v)
	}
	return ref, nil
}

func ObjectResult(e *Env, v any) ObjectRef {
	ref, err := TryObjectResult(e, v)
	if err != nil {
		panic(err)
	}
	return ref
}

func TryBoolResult(e *Env, v any) (bool, error) {
	ref, ok := v.(BoolRef)
	if !ok {
		return false, resultErr("BoolRef", v)
	}
	return ref != 0, nil
}

func BoolResult(e *Env, v any) bool {
	b, err := TryBoolResult(e, v)
	if err != nil {
		panic(err)
	}
	return b
}

func TryByteResult(e *Env, v any) (int8, error) {
	ref, ok := v.(ByteRef)
	if !ok {
		return 0, resultErr("ByteRef", v)
	}
	return int8(ref), nil
}

func ByteResult(e *Env, v any) int8 {
	n, err := TryByteResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryShortResult(e *Env, v any) (int16, error) {
	ref, ok := v.(ShortRef)
	if !ok {
		return 0, resultErr("ShortRef", v)
	}
	return int16(ref), nil
}

func ShortResult(e *Env, v any) int16 {
	n, err := TryShortResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryCharResult(e *Env, v any) (uint16, error) {
	ref, ok := v.(CharRef)
	if !ok {
		return 0, resultErr("CharRef", v)
	}
	return uint16(ref), nil
}

func CharResult(e *Env, v any) uint16 {
	n, err := TryCharResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryIntResult(e *Env, v any) (int32, error) {
	ref, ok := v.(IntRef)
	if !ok {
		return 0, resultErr("IntRef", v)
	}
	return int32(ref), nil
}

func IntResult(e *Env, v any) int32 {
	n, err := TryIntResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryLongResult(e *Env, v any) (int64, error) {
	ref, ok := v.(LongRef)
	if !ok {
		return 0, resultErr("LongRef", v)
	}
	return int64(ref), nil
}

func LongResult(e *Env, v any) int64 {
	n, err := TryLongResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryFloatResult(e *Env, v any) (float32, error) {
	ref, ok := v.(FloatRef)
	if !ok {
		return 0, resultErr("FloatRef", v)
	}
	return float32(ref), nil
}

func FloatResult(e *Env, v any) float32 {
	n, err := TryFloatResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}

func TryDoubleResult(e *Env, v any) (float64, error) {
	ref, ok := v.(DoubleRef)
	if !ok {
		return 0, resultErr("DoubleRef", v)
	}
	return float64(ref), nil
}

func DoubleResult(e *Env, v any) float64 {
	n, err := TryDoubleResult(e, v)
	if err != nil {
		panic(err)
	}
	return n
}
