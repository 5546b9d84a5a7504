package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceOverview_Amount(t *testing.T) {
	assert.Equal(t, "9.99", PriceOverview{Final: 999}.Amount().String())
	assert.Equal(t, "0", PriceOverview{}.Amount().String())
	assert.Equal(t, "59.5", PriceOverview{Final: 5950}.Amount().String())
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://cdn.akamai.steamstatic.com/steam/apps/620/header.jpg", HeaderImageURL(620))
	assert.Equal(t, "https://store.steampowered.com/app/620/", StoreURL(620))
}
