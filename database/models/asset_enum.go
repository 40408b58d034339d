package models

import (
	"database/sql/driver"
	"fmt"
)

// Asset tags the settlement backend a swap leg is held on.
type Asset string

const (
	AssetBitcoin Asset = "btc"
	AssetDepix   Asset = "depix"
)

func (a Asset) String() string {
	return string(a)
}

func (a *Asset) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("failed to scan Asset: expected string, got %T", value)
	}
	*a = Asset(str)

	return nil
}

func (a Asset) Value() (driver.Value, error) {
	return string(a), nil
}

func CreateAssetEnumSQL() string {
	return `CREATE TYPE "public"."asset" AS ENUM (
		'btc',
		'depix'
	);
	`
}

func DropAssetEnumSQL() string {
	return `DROP TYPE "public"."asset";`
}
