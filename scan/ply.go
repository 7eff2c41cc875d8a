package scan

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	pcmat "github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"
)

var plyTypeSize = map[string]int{
	"char": 1, "int8": 1,
	"uchar": 1, "uint8": 1,
	"short": 2, "int16": 2,
	"ushort": 2, "uint16": 2,
	"int": 4, "int32": 4,
	"uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

type plyProperty struct {
	name string
	typ  string
	// countType is set for list properties.
	countType string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyValueReader interface {
	next(typ string) (float64, error)
}

type plyASCIIReader struct {
	s *bufio.Scanner
}

func (r *plyASCIIReader) next(typ string) (float64, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.ParseFloat(r.s.Text(), 64)
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (r *plyBinaryReader) next(typ string) (float64, error) {
	b := r.buf[:plyTypeSize[typ]]
	if _, err := io.ReadFull(r.r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(b[0])), nil
	case "uchar", "uint8":
		return float64(b[0]), nil
	case "short", "int16":
		return float64(int16(r.order.Uint16(b))), nil
	case "ushort", "uint16":
		return float64(r.order.Uint16(b)), nil
	case "int", "int32":
		return float64(int32(r.order.Uint32(b))), nil
	case "uint", "uint32":
		return float64(r.order.Uint32(b)), nil
	case "float", "float32":
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}

func plyType(t string) error {
	if _, ok := plyTypeSize[t]; !ok {
		return fmt.Errorf("unknown property type %q", t)
	}
	return nil
}

// ReadPLY returns the x, y, z properties of the vertex element of a PLY
// file in ascii, binary_little_endian or binary_big_endian format.
// Other elements are skipped.
func ReadPLY(r io.Reader) (pc.Vec3Slice, error) {
	rb := bufio.NewReader(r)
	readLine := func() ([]string, error) {
		line, err := rb.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return strings.Fields(line), nil
	}

	magic, err := readLine()
	if err != nil {
		return nil, err
	}
	if len(magic) != 1 || magic[0] != "ply" {
		return nil, errors.New("not a PLY file")
	}

	var (
		format string
		elems  []plyElement
	)
L_HEADER:
	for {
		args, err := readLine()
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "format":
			if len(args) < 2 {
				return nil, errors.New("format must have value")
			}
			format = args[1]
		case "element":
			if len(args) != 3 {
				return nil, fmt.Errorf("invalid element line %q", strings.Join(args, " "))
			}
			n, err := strconv.Atoi(args[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid element count %q", args[2])
			}
			elems = append(elems, plyElement{name: args[1], count: n})
		case "property":
			if len(elems) == 0 {
				return nil, errors.New("property before element")
			}
			var prop plyProperty
			switch {
			case len(args) == 5 && args[1] == "list":
				prop = plyProperty{name: args[4], typ: args[3], countType: args[2]}
				if err := plyType(prop.countType); err != nil {
					return nil, err
				}
			case len(args) == 3:
				prop = plyProperty{name: args[2], typ: args[1]}
			default:
				return nil, fmt.Errorf("invalid property line %q", strings.Join(args, " "))
			}
			if err := plyType(prop.typ); err != nil {
				return nil, err
			}
			e := &elems[len(elems)-1]
			e.props = append(e.props, prop)
		case "comment", "obj_info":
		case "end_header":
			break L_HEADER
		default:
			return nil, fmt.Errorf("unknown header keyword %q", args[0])
		}
	}

	var vr plyValueReader
	switch format {
	case "ascii":
		s := bufio.NewScanner(rb)
		s.Split(bufio.ScanWords)
		vr = &plyASCIIReader{s: s}
	case "binary_little_endian":
		vr = &plyBinaryReader{r: rb, order: binary.LittleEndian}
	case "binary_big_endian":
		vr = &plyBinaryReader{r: rb, order: binary.BigEndian}
	case "":
		return nil, errors.New("no format in header")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	vertex := -1
	for i, e := range elems {
		if e.name != "vertex" {
			continue
		}
		found := 0
		for _, p := range e.props {
			switch p.name {
			case "x", "y", "z":
				if p.countType != "" {
					return nil, fmt.Errorf("vertex property %s must be scalar", p.name)
				}
				found++
			}
		}
		if found != 3 {
			return nil, errors.New("vertex element must have x, y and z")
		}
		vertex = i
		break
	}
	if vertex < 0 {
		return nil, errors.New("no vertex element")
	}

	for _, e := range elems[:vertex] {
		for i := 0; i < e.count; i++ {
			if err := skipPLYElement(vr, e); err != nil {
				return nil, fmt.Errorf("element %s %d: %w", e.name, i, err)
			}
		}
	}

	e := elems[vertex]
	out := make(pc.Vec3Slice, 0, e.count)
	for i := 0; i < e.count; i++ {
		var p pcmat.Vec3
		for _, prop := range e.props {
			if prop.countType != "" {
				if err := skipPLYList(vr, prop); err != nil {
					return nil, fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			v, err := vr.next(prop.typ)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			switch prop.name {
			case "x":
				p[0] = float32(v)
			case "y":
				p[1] = float32(v)
			case "z":
				p[2] = float32(v)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func skipPLYElement(vr plyValueReader, e plyElement) error {
	for _, prop := range e.props {
		if prop.countType != "" {
			if err := skipPLYList(vr, prop); err != nil {
				return err
			}
			continue
		}
		if _, err := vr.next(prop.typ); err != nil {
			return err
		}
	}
	return nil
}

func skipPLYList(vr plyValueReader, prop plyProperty) error {
	n, err := vr.next(prop.countType)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative length of list %s", prop.name)
	}
	for j := 0; j < int(n); j++ {
		if _, err := vr.next(prop.typ); err != nil {
			return err
		}
	}
	return nil
}

// PLYLoader reads the vertices of PLY files.
type PLYLoader struct{}

func (PLYLoader) Load(ctx context.Context, s Scan) (pc.Vec3Slice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	points, err := ReadPLY(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return points, nil
}
