package output

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/esatel/adcpy/internal/adcp"
	"github.com/esatel/adcpy/internal/average"
)

// NetCDF classic (CDF-1) constants.
const (
	ncDimension = 0x0A
	ncVariable  = 0x0B
	ncAttribute = 0x0C

	ncChar   = 2
	ncInt    = 4
	ncDouble = 6

	// FillDouble is the default NetCDF double fill value; missing cells
	// are written as this.
	FillDouble = 9.96920996838687e+36
)

// NetCDFWriter writes one averaged field as a NetCDF classic file named
// <name>.nc under Dir. Dimensions are (distance, elevation, component);
// variables are the coordinate vectors plus velocity, velocity_n and
// velocity_sd, with _FillValue marking missing cells.
type NetCDFWriter struct {
	Dir string
}

type ncDim struct {
	name string
	size int
}

type ncAttr struct {
	name string
	text string  // used when typ == ncChar
	f64  float64 // used when typ == ncDouble
	typ  int
}

type ncVar struct {
	name   string
	dimids []int
	attrs  []ncAttr
	typ    int
	data   []byte
}

// WriteGrid implements average.GridWriter.
func (w *NetCDFWriter) WriteGrid(name string, f *average.Field) error {
	nx, nz := f.Grid.NX(), f.Grid.NZ()

	dims := []ncDim{
		{"distance", nx},
		{"elevation", nz},
		{"component", adcp.NumComponents},
	}

	mps := []ncAttr{
		{name: "units", typ: ncChar, text: "m/s"},
		{name: "_FillValue", typ: ncDouble, f64: FillDouble},
	}

	vars := []ncVar{
		{name: "distance", dimids: []int{0}, typ: ncDouble,
			attrs: []ncAttr{{name: "units", typ: ncChar, text: "m"}},
			data:  encodeFloats(f.Grid.Dist)},
		{name: "elevation", dimids: []int{1}, typ: ncDouble,
			attrs: []ncAttr{{name: "units", typ: ncChar, text: "m"}},
			data:  encodeFloats(f.Grid.Elev)},
		{name: "velocity", dimids: []int{0, 1, 2}, typ: ncDouble,
			attrs: mps, data: encodeValues(f.Velocity)},
		{name: "velocity_n", dimids: []int{0, 1, 2}, typ: ncInt,
			data: encodeCounts(f.Count)},
		{name: "velocity_sd", dimids: []int{0, 1, 2}, typ: ncDouble,
			attrs: mps, data: encodeValues(f.SD)},
	}

	global := []ncAttr{
		{name: "title", typ: ncChar, text: "bin-averaged ADCP transect velocities"},
		{name: "group", typ: ncChar, text: name},
	}

	// The header length depends only on names and attribute shapes, so a
	// first pass with zero offsets sizes it; data offsets follow from there.
	begins := make([]int, len(vars))
	begin := len(encodeHeader(dims, global, vars, begins))
	for i, v := range vars {
		begins[i] = begin
		begin += paddedLen(len(v.data))
	}
	header := encodeHeader(dims, global, vars, begins)

	var buf bytes.Buffer
	buf.Write(header)
	for _, v := range vars {
		buf.Write(v.data)
		buf.Write(make([]byte, paddedLen(len(v.data))-len(v.data)))
	}

	path := filepath.Join(w.Dir, name+".nc")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func encodeHeader(dims []ncDim, global []ncAttr, vars []ncVar, begins []int) []byte {
	var b bytes.Buffer
	b.WriteString("CDF\x01")
	putInt(&b, 0) // numrecs: no record dimension

	putInt(&b, ncDimension)
	putInt(&b, len(dims))
	for _, d := range dims {
		putName(&b, d.name)
		putInt(&b, d.size)
	}

	putAttrList(&b, global)

	putInt(&b, ncVariable)
	putInt(&b, len(vars))
	for i, v := range vars {
		putName(&b, v.name)
		putInt(&b, len(v.dimids))
		for _, id := range v.dimids {
			putInt(&b, id)
		}
		putAttrList(&b, v.attrs)
		putInt(&b, v.typ)
		putInt(&b, paddedLen(len(v.data)))
		putInt(&b, begins[i])
	}
	return b.Bytes()
}

func putAttrList(b *bytes.Buffer, attrs []ncAttr) {
	if len(attrs) == 0 {
		// ABSENT: zero tag, zero count.
		putInt(b, 0)
		putInt(b, 0)
		return
	}
	putInt(b, ncAttribute)
	putInt(b, len(attrs))
	for _, a := range attrs {
		putName(b, a.name)
		putInt(b, a.typ)
		switch a.typ {
		case ncChar:
			putInt(b, len(a.text))
			b.WriteString(a.text)
			b.Write(make([]byte, paddedLen(len(a.text))-len(a.text)))
		case ncDouble:
			putInt(b, 1)
			var raw [8]byte
			binary.BigEndian.PutUint64(raw[:], floatBits(a.f64))
			b.Write(raw[:])
		}
	}
}

func putName(b *bytes.Buffer, s string) {
	putInt(b, len(s))
	b.WriteString(s)
	b.Write(make([]byte, paddedLen(len(s))-len(s)))
}

func putInt(b *bytes.Buffer, v int) {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], uint32(int32(v)))
	b.Write(raw[:])
}

// paddedLen rounds n up to the 4-byte alignment the format requires.
func paddedLen(n int) int {
	return (n + 3) &^ 3
}

func encodeFloats(xs []float64) []byte {
	out := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.BigEndian.PutUint64(out[8*i:], floatBits(x))
	}
	return out
}

func encodeValues(vs []adcp.Value) []byte {
	out := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.BigEndian.PutUint64(out[8*i:], floatBits(v.Or(FillDouble)))
	}
	return out
}

func encodeCounts(ns []int) []byte {
	out := make([]byte, 4*len(ns))
	for i, n := range ns {
		binary.BigEndian.PutUint32(out[4*i:], uint32(int32(n)))
	}
	return out
}

func floatBits(x float64) uint64 {
	return math.Float64bits(x)
}
