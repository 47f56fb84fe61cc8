package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/whist/internal/domain"
)

func provider(id int, name, logo string) domain.WatchProvider {
	return domain.WatchProvider{ProviderID: id, ProviderName: name, LogoPath: logo}
}

func TestNormalize(t *testing.T) {
	suffixes := loadTable().Suffixes

	assert.Equal(t, []string{"netflix"}, normalize("Netflix basic with Ads", suffixes))
	assert.Equal(t, []string{"paramount", "plus"}, normalize("Paramount+ Amazon Channel", suffixes))
	assert.Equal(t, []string{"paramount", "plus"}, normalize("Paramount Plus Apple TV Channel ", suffixes))
	assert.Equal(t, []string{"peacock"}, normalize("Peacock Premium Plus", suffixes))
	assert.Equal(t, []string{"amc", "plus"}, normalize("AMC+ Roku Premium Channel", suffixes))
	assert.Equal(t, []string{"premium"}, normalize("Premium", suffixes))
	assert.Empty(t, normalize(" !! ", suffixes))
}

func TestBrandsGroupsChannelsAndTiers(t *testing.T) {
	brands := Brands([]domain.WatchProvider{
		provider(8, "Netflix", "/netflix.jpg"),
		provider(582, "Paramount+ Amazon Channel", "/pp-amazon.jpg"),
		provider(1796, "Netflix basic with Ads", "/netflix-ads.jpg"),
		provider(531, "Paramount Plus", "/pp.jpg"),
		provider(1853, "Paramount Plus Apple TV Channel ", "/pp-apple.jpg"),
		provider(526, "AMC+", "/amc.jpg"),
		provider(528, "AMC+ Roku Premium Channel", "/amc-roku.jpg"),
		provider(15, "Hulu", "/hulu.jpg"),
	})

	require.Len(t, brands, 4)

	assert.Equal(t, domain.ProviderBrand{Name: "Netflix", LogoPath: "/netflix.jpg", ProviderIDs: []int{8, 1796}}, brands[0])
	assert.Equal(t, domain.ProviderBrand{Name: "Paramount+", LogoPath: "/pp.jpg", ProviderIDs: []int{582, 531, 1853}}, brands[1])
	assert.Equal(t, domain.ProviderBrand{Name: "AMC+", LogoPath: "/amc.jpg", ProviderIDs: []int{526, 528}}, brands[2])
	assert.Equal(t, domain.ProviderBrand{Name: "Hulu", LogoPath: "/hulu.jpg", ProviderIDs: []int{15}}, brands[3])
}

func TestBrandsCommonPrefixWithoutBaseMember(t *testing.T) {
	brands := Brands([]domain.WatchProvider{
		provider(1, "Starz Amazon Channel", "/a.jpg"),
		provider(2, "Starz Apple TV Channel", "/b.jpg"),
	})

	require.Len(t, brands, 1)
	assert.Equal(t, "Starz", brands[0].Name)
	assert.Equal(t, "/a.jpg", brands[0].LogoPath)

	brands = Brands([]domain.WatchProvider{
		provider(1, "Crunchyroll Premium", "/a.jpg"),
		provider(2, "crunchyroll mega fan", "/b.jpg"),
	})
	require.Len(t, brands, 1)
	assert.Equal(t, "Crunchyroll", brands[0].Name)
}

func TestBrandsAliases(t *testing.T) {
	brands := Brands([]domain.WatchProvider{
		provider(9, "Amazon Prime Video", "/prime.jpg"),
		provider(350, "Apple TV Plus", "/apple.jpg"),
		provider(1899, "HBO Max", "/max.jpg"),
	})

	names := make([]string, 0, len(brands))
	for _, b := range brands {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Prime Video", "Apple TV+", "Max"}, names)
}

func TestBrandsEmpty(t *testing.T) {
	assert.Empty(t, Brands(nil))
	assert.NotNil(t, Brands(nil))
}
