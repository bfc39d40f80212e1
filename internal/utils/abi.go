package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MustABIType builds an abi.Type from a type string and optional tuple components.
// Only call it with constant inputs; a failure is a programming error.
func MustABIType(t string, components ...abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("invalid type: %s: %v", t, err))
	}
	return typ
}

// MustParseABI parses a JSON ABI definition held in a constant
func MustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}
