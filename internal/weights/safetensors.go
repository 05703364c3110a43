// Package weights reads and writes model parameters in SafeTensors format:
//
//	[8 bytes: header_size (uint64 LE)]
//	[header_size bytes: JSON header]
//	[tensor data: raw bytes]
//
// The JSON header maps parameter names to {dtype, shape, data_offsets}.
package weights

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fpnet-ml/fpnet/internal/tensor"
)

// maxHeaderSize bounds the JSON header to catch corrupt files early.
const maxHeaderSize = 100 << 20

// tensorInfo describes one tensor in the SafeTensors header.
type tensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// Save writes a state dictionary to a SafeTensors file. Tensors are written
// in alphabetical order by name, as the format requires.
func Save(path string, stateDict map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(stateDict)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}

	var offset int64
	for _, name := range names {
		raw := stateDict[name]
		size := int64(raw.ByteSize())

		shape := raw.Shape()
		shape64 := make([]int64, len(shape))
		for i, dim := range shape {
			shape64[i] = int64(dim)
		}

		header[name] = tensorInfo{
			DType:       dtypeName(raw.DType()),
			Shape:       shape64,
			DataOffsets: [2]int64{offset, offset + size},
		}
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("weights: failed to marshal header: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("weights: failed to create %s: %w", path, err)
	}

	if err := writeTensors(f, headerJSON, names, stateDict); err != nil {
		f.Close()
		return err
	}
	// Close errors matter here: a failed flush truncates the file.
	if err := f.Close(); err != nil {
		return fmt.Errorf("weights: failed to close %s: %w", path, err)
	}
	return nil
}

func writeTensors(w io.Writer, headerJSON []byte, names []string, stateDict map[string]*tensor.RawTensor) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("weights: failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("weights: failed to write header: %w", err)
	}
	for _, name := range names {
		if _, err := w.Write(stateDict[name].Data()); err != nil {
			return fmt.Errorf("weights: failed to write tensor %s: %w", name, err)
		}
	}
	return nil
}

// Load reads every tensor of a SafeTensors file into CPU memory.
func Load(path string) (map[string]*tensor.RawTensor, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("weights: failed to open %s: %w", path, err)
	}
	defer f.Close()

	var headerSize uint64
	if err := binary.Read(f, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("weights: failed to read header size: %w", err)
	}
	if headerSize == 0 || headerSize > maxHeaderSize {
		return nil, nil, fmt.Errorf("weights: invalid header size %d", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(f, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("weights: failed to read header: %w", err)
	}

	var rawHeader map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &rawHeader); err != nil {
		return nil, nil, fmt.Errorf("weights: failed to parse header: %w", err)
	}

	var metadata map[string]string
	if metaRaw, ok := rawHeader["__metadata__"]; ok {
		if err := json.Unmarshal(metaRaw, &metadata); err != nil {
			return nil, nil, fmt.Errorf("weights: failed to parse metadata: %w", err)
		}
	}

	infos := make(map[string]tensorInfo, len(rawHeader))
	for name, raw := range rawHeader {
		if name == "__metadata__" {
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return nil, nil, fmt.Errorf("weights: failed to parse tensor %s: %w", name, err)
		}
		infos[name] = info
	}

	dataStart := int64(8 + headerSize)
	tensors := make(map[string]*tensor.RawTensor, len(infos))
	for name, info := range infos {
		dt, err := dtypeFromName(info.DType)
		if err != nil {
			return nil, nil, fmt.Errorf("weights: tensor %s: %w", name, err)
		}

		shape := make(tensor.Shape, len(info.Shape))
		for i, dim := range info.Shape {
			shape[i] = int(dim)
		}

		raw, err := tensor.NewRaw(shape, dt, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("weights: tensor %s: %w", name, err)
		}

		start, end := info.DataOffsets[0], info.DataOffsets[1]
		if end-start != int64(raw.ByteSize()) {
			return nil, nil, fmt.Errorf("weights: tensor %s: data size %d does not match shape %v",
				name, end-start, shape)
		}
		if _, err := f.ReadAt(raw.Data(), dataStart+start); err != nil {
			return nil, nil, fmt.Errorf("weights: failed to read tensor %s: %w", name, err)
		}
		tensors[name] = raw
	}

	return tensors, metadata, nil
}

func dtypeName(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return "F32"
	case tensor.Float64:
		return "F64"
	case tensor.Int32:
		return "I32"
	case tensor.Int64:
		return "I64"
	case tensor.Uint8:
		return "U8"
	default:
		return "F32"
	}
}

func dtypeFromName(name string) (tensor.DataType, error) {
	switch name {
	case "F32":
		return tensor.Float32, nil
	case "F64":
		return tensor.Float64, nil
	case "I32":
		return tensor.Int32, nil
	case "I64":
		return tensor.Int64, nil
	case "U8":
		return tensor.Uint8, nil
	default:
		return tensor.Float32, fmt.Errorf("unsupported dtype %q", name)
	}
}
