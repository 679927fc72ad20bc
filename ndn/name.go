/* MNFD - Micro NDN Forwarding Daemon
 *
 * Copyright (C) 2022 The MNFD Authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package ndn

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/named-data/mnfd/ndn/tlv"
	"github.com/named-data/mnfd/ndn/util"
)

// NameComponent represents an NDN name component. The forwarder treats component
// values as opaque octets; typed components are carried through unmodified.
type NameComponent struct {
	tlvType uint16
	value   []byte
}

// NewGenericNameComponent creates a GenericNameComponent with the specified value.
func NewGenericNameComponent(value []byte) NameComponent {
	c := NameComponent{tlvType: tlv.GenericNameComponent}
	c.value = make([]byte, len(value))
	copy(c.value, value)
	return c
}

// NewNameComponent creates a name component of an arbitrary type.
func NewNameComponent(tlvType uint16, value []byte) NameComponent {
	c := NameComponent{tlvType: tlvType}
	c.value = make([]byte, len(value))
	copy(c.value, value)
	return c
}

// DecodeNameComponent decodes a name component from the wire.
func DecodeNameComponent(wire *tlv.Block) (NameComponent, error) {
	if wire == nil {
		return NameComponent{}, util.ErrNonExistent
	}
	if wire.Type() > math.MaxUint16 {
		return NameComponent{}, util.ErrOutOfRange
	}
	return NewNameComponent(uint16(wire.Type()), wire.Value()), nil
}

// Type returns the TLV type of the name component.
func (c NameComponent) Type() uint16 {
	return c.tlvType
}

// Value returns the TLV value of the name component.
func (c NameComponent) Value() []byte {
	return c.value
}

// Equals returns whether the two name components match.
func (c NameComponent) Equals(other NameComponent) bool {
	return c.tlvType == other.tlvType && bytes.Equal(c.value, other.value)
}

func (c NameComponent) String() string {
	if c.tlvType == tlv.GenericNameComponent {
		return escapeComponent(c.value)
	}
	return strconv.FormatUint(uint64(c.tlvType), 10) + "=" + escapeComponent(c.value)
}

// Encode encodes the name component into a block.
func (c NameComponent) Encode() *tlv.Block {
	return tlv.NewBlock(uint32(c.tlvType), c.value)
}

// Name represents an NDN name.
type Name struct {
	components   []NameComponent
	cachedString string
}

// NewName constructs an empty name.
func NewName() *Name {
	return new(Name)
}

// NameFromString decodes a name from a string.
func NameFromString(str string) (*Name, error) {
	n := new(Name)

	if len(str) == 0 {
		// Empty name
		return n, nil
	}

	components := strings.Split(str, "/")[1:] // Skip first since empty
	if len(components) == 0 || len(components[0]) == 0 {
		// Empty name
		return n, nil
	}
	for _, component := range components {
		if strings.Contains(component, "=") {
			componentSplit := strings.SplitN(component, "=", 2)
			unescapedValue, err := unescapeComponent(componentSplit[1])
			if err != nil {
				return nil, errors.New("error unescaping component value")
			}
			t, err := strconv.ParseUint(componentSplit[0], 10, 16)
			if err != nil {
				return nil, errors.New("unable to decode component type \"" + componentSplit[0] + "\"")
			}
			n.Append(NewNameComponent(uint16(t), []byte(unescapedValue)))
		} else {
			// Treat as GenericNameComponent
			unescaped, err := unescapeComponent(component)
			if err != nil {
				return nil, errors.New("error unescaping component value")
			}
			n.Append(NewGenericNameComponent([]byte(unescaped)))
		}
	}

	return n, nil
}

func escapeComponent(in []byte) string {
	out := make([]byte, 0, 3*len(in)) // Worst case if every character has to be escaped
	nPeriods := 0
	for _, b := range in {
		switch {
		case b == '.':
			nPeriods++
			fallthrough
		case (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '-' || b == '_' || b == '~':
			out = append(out, b)
		default:
			out = append(out, '%', 0, 0)
			hex.Encode(out[len(out)-2:], []byte{b})
		}
	}
	if nPeriods == len(in) {
		out = append(out, '.', '.', '.')
	}
	return string(out)
}

func unescapeComponent(in string) (string, error) {
	out := make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] == '%' {
			if len(in) <= i+2 {
				return "", errors.New("incomplete escape sequence")
			}
			unescaped, err := hex.DecodeString(in[i+1 : i+3])
			if err != nil {
				return "", errors.New("could not decode escape sequence")
			}
			out = append(out, unescaped...)
			i += 2
		} else {
			out = append(out, in[i])
		}
	}
	return string(out), nil
}

// DecodeName decodes a name from wire encoding.
func DecodeName(b *tlv.Block) (*Name, error) {
	if b == nil {
		return nil, util.ErrNonExistent
	}
	if b.Type() != tlv.Name {
		return nil, tlv.ErrUnexpected
	}

	if len(b.Subelements()) == 0 {
		b.Parse()
	}
	n := new(Name)
	n.components = make([]NameComponent, len(b.Subelements()))
	for i, elem := range b.Subelements() {
		component, err := DecodeNameComponent(elem)
		if err != nil {
			return nil, err
		}
		n.components[i] = component
	}
	return n, nil
}

func (n *Name) String() string {
	if len(n.cachedString) > 0 {
		return n.cachedString
	}

	if n.Size() == 0 {
		return "/"
	}

	var out string
	for _, component := range n.components {
		out += "/" + component.String()
	}
	n.cachedString = out
	return out
}

// Append adds the specified name component to the end of the name.
func (n *Name) Append(component NameComponent) *Name {
	n.components = append(n.components, component)
	n.cachedString = ""
	return n
}

// At returns the name component at the specified index. If out of range, a zero
// component is returned with ok set to false.
func (n *Name) At(index int) (NameComponent, bool) {
	if index < -len(n.components) || index >= len(n.components) {
		return NameComponent{}, false
	}

	if index < 0 {
		return n.components[len(n.components)+index], true
	}
	return n.components[index], true
}

// DeepCopy returns a deep copy of the name.
func (n *Name) DeepCopy() *Name {
	name := new(Name)
	name.components = make([]NameComponent, 0, len(n.components))
	for _, component := range n.components {
		name.components = append(name.components, NewNameComponent(component.tlvType, component.value))
	}
	return name
}

// Equals returns whether the specified name is equal to this name.
func (n *Name) Equals(other *Name) bool {
	if other == nil || n.Size() != other.Size() {
		return false
	}

	for i := 0; i < n.Size(); i++ {
		if !n.components[i].Equals(other.components[i]) {
			return false
		}
	}

	return true
}

// Prefix returns a name prefix of the specified number of components. If greater than or
// equal to the size of the name, this returns a copy of the name.
func (n *Name) Prefix(size int) *Name {
	prefix := new(Name)
	for i := 0; i < size && i < len(n.components); i++ {
		prefix.Append(NewNameComponent(n.components[i].tlvType, n.components[i].value))
	}
	return prefix
}

// PrefixOf returns whether this name is a prefix of the specified name.
func (n *Name) PrefixOf(other *Name) bool {
	if other == nil || n.Size() > other.Size() {
		return false
	}

	for i := 0; i < n.Size(); i++ {
		if !n.components[i].Equals(other.components[i]) {
			return false
		}
	}

	return true
}

// Size returns the number of components in the name.
func (n *Name) Size() int {
	return len(n.components)
}

// Encode encodes the name into a block.
func (n *Name) Encode() *tlv.Block {
	wire := tlv.NewEmptyBlock(tlv.Name)
	for _, component := range n.components {
		wire.Append(component.Encode())
	}
	wire.Wire()
	return wire
}
