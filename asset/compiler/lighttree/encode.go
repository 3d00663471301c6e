package lighttree

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The size of an encoded PackedNode in bytes.
const PackedNodeSize = 64

// Encode the node into its 64-byte little-endian GPU representation:
//
//	 0: min.xyz      12: energy
//	16: max.xyz      28: data
//	32: axis.xyz     44: thetaO
//	48: thetaE       52: numLights
//	56: flags        60: bitTrail
func (n *PackedNode) MarshalBinary() ([]byte, error) {
	buf := make([]byte, PackedNodeSize)
	n.put(buf)
	return buf, nil
}

// Decode a node from its 64-byte GPU representation.
func (n *PackedNode) UnmarshalBinary(data []byte) error {
	if len(data) != PackedNodeSize {
		return fmt.Errorf("lighttree: invalid packed node size %d; expected %d", len(data), PackedNodeSize)
	}

	le := binary.LittleEndian
	f32 := func(offset int) float32 { return math.Float32frombits(le.Uint32(data[offset:])) }
	for axis := 0; axis < 3; axis++ {
		n.Min[axis] = f32(axis * 4)
		n.Max[axis] = f32(16 + axis*4)
		n.Axis[axis] = f32(32 + axis*4)
	}
	n.Energy = f32(12)
	n.Data = int32(le.Uint32(data[28:]))
	n.ThetaO = f32(44)
	n.ThetaE = f32(48)
	n.NumLights = le.Uint32(data[52:])
	n.Flags = le.Uint32(data[56:])
	n.BitTrail = le.Uint32(data[60:])
	return nil
}

func (n *PackedNode) put(buf []byte) {
	le := binary.LittleEndian
	putF32 := func(offset int, v float32) { le.PutUint32(buf[offset:], math.Float32bits(v)) }
	for axis := 0; axis < 3; axis++ {
		putF32(axis*4, n.Min[axis])
		putF32(16+axis*4, n.Max[axis])
		putF32(32+axis*4, n.Axis[axis])
	}
	putF32(12, n.Energy)
	le.PutUint32(buf[28:], uint32(n.Data))
	putF32(44, n.ThetaO)
	putF32(48, n.ThetaE)
	le.PutUint32(buf[52:], n.NumLights)
	le.PutUint32(buf[56:], n.Flags)
	le.PutUint32(buf[60:], n.BitTrail)
}

// Write the GPU representation of a node list to w.
func EncodeNodes(w io.Writer, nodes []PackedNode) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, PackedNodeSize)
	for index := range nodes {
		nodes[index].put(buf)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("lighttree: could not encode node %d: %w", index, err)
		}
	}
	return bw.Flush()
}

// Read a node list encoded with EncodeNodes.
func DecodeNodes(r io.Reader) ([]PackedNode, error) {
	nodes := make([]PackedNode, 0)
	br := bufio.NewReader(r)
	buf := make([]byte, PackedNodeSize)
	for {
		_, err := io.ReadFull(br, buf)
		if err == io.EOF {
			return nodes, nil
		} else if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("lighttree: truncated node buffer after %d nodes", len(nodes))
		} else if err != nil {
			return nil, err
		}

		var node PackedNode
		if err = node.UnmarshalBinary(buf); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}
