package curves

import (
	"fmt"
	"strings"
)

// AssetType is the category of value a curve governs
type AssetType uint8

const (
	AssetTypeETH       AssetType = 0
	AssetTypeERC20     AssetType = 1
	AssetTypeERC721    AssetType = 2
	AssetTypeERC721ID  AssetType = 3
	AssetTypeERC1155   AssetType = 4
	AssetTypeERC1155ID AssetType = 5
)

var assetTypeNames = map[AssetType]string{
	AssetTypeETH:       "ETH",
	AssetTypeERC20:     "ERC20",
	AssetTypeERC721:    "ERC721",
	AssetTypeERC721ID:  "ERC721_ID",
	AssetTypeERC1155:   "ERC1155",
	AssetTypeERC1155ID: "ERC1155_ID",
}

func (a AssetType) String() string {
	if name, ok := assetTypeNames[a]; ok {
		return name
	}
	return fmt.Sprintf("AssetType(%d)", uint8(a))
}

// ParseAssetType accepts the names printed by String, case-insensitively
func ParseAssetType(s string) (AssetType, error) {
	for a, name := range assetTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown asset type %q", s)
}

// EvaluationType tells the evaluator how to interpret a requirement curve's value
type EvaluationType uint8

const (
	// EvaluationTypeAbsolute compares against the evaluated value itself
	EvaluationTypeAbsolute EvaluationType = 0
	// EvaluationTypeRelative compares against the change from the state prior to execution
	EvaluationTypeRelative EvaluationType = 1
)

func (e EvaluationType) String() string {
	switch e {
	case EvaluationTypeAbsolute:
		return "ABSOLUTE"
	case EvaluationTypeRelative:
		return "RELATIVE"
	default:
		return fmt.Sprintf("EvaluationType(%d)", uint8(e))
	}
}

// ParseEvaluationType parses ABSOLUTE or RELATIVE; empty input means ABSOLUTE
func ParseEvaluationType(s string) (EvaluationType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ABSOLUTE":
		return EvaluationTypeAbsolute, nil
	case "RELATIVE":
		return EvaluationTypeRelative, nil
	default:
		return 0, fmt.Errorf("unknown evaluation type %q", s)
	}
}
