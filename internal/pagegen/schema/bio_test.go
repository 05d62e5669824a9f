package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRepairBioScenarioLinkWithoutURL(t *testing.T) {
	got := RepairBioElements(parse(t, `[{"type":"link"}]`))
	require.Len(t, got, 1)

	el := got[0]
	require.Equal(t, BioLink, el.Type)
	require.Equal(t, 0, el.Order)
	require.Nil(t, el.Fields)
	_, err := uuid.Parse(el.ID)
	require.NoError(t, err)

	b, err := json.Marshal(el)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 3, "only type, id and order are set: %s", b)
	require.NotContains(t, out, "url")
}

func TestRepairBioCompleteIsIdentity(t *testing.T) {
	in := `[
		{"id":"3f1f5a1e-7d4e-4b8a-9a55-2b4e8d6c1a01","type":"profile","order":0,"name":"Ana","bioText":"Drummer"},
		{"id":"3f1f5a1e-7d4e-4b8a-9a55-2b4e8d6c1a02","type":"socials","order":1,"socialLinks":[{"platform":"instagram","url":"https://instagram.com/ana"}]},
		{"id":"3f1f5a1e-7d4e-4b8a-9a55-2b4e8d6c1a03","type":"card","order":2,"title":"Tour","url":"https://tour","description":"Dates","layout":"wide"}
	]`
	var want []BioElement
	require.NoError(t, json.Unmarshal([]byte(in), &want))

	got := RepairBioElements(parse(t, in))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("repair changed complete elements (-want +got):\n%s", diff)
	}
}

func TestRepairBioOrdering(t *testing.T) {
	got := RepairBioElements(parse(t, `{"elements":[
		{"type":"header","order":5},
		{"type":"link","order":"first"},
		{"type":"button"},
		{"type":"image","order":-1},
		{"type":"card","order":1.5},
		{"type":"profile","order":0}
	]}`))

	var types []BioElementType
	var orders []int
	for _, el := range got {
		types = append(types, el.Type)
		orders = append(orders, el.Order)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, orders)
	// Invalid orders fall back to the element's position in the input.
	require.Equal(t, []BioElementType{BioProfile, BioLink, BioButton, BioImage, BioCard, BioHeader}, types)
}

func TestRepairBioInputShapes(t *testing.T) {
	require.Len(t, RepairBioElements(parse(t, `{"bioElements":[{"type":"link"},{"type":"card"}]}`)), 2)
	require.Len(t, RepairBioElements(parse(t, `{"type":"profile","name":"solo"}`)), 1)
	require.Empty(t, RepairBioElements(parse(t, `{"title":"nothing here"}`)))
	require.Empty(t, RepairBioElements(nil))
	require.NotNil(t, RepairBioElements("garbage"))
	require.Len(t, RepairBioElements(parse(t, `[1,{"type":"link"},"x"]`)), 1)
}

func TestRepairBioRegeneratesInvalidIDs(t *testing.T) {
	got := RepairBioElements(parse(t, `[{"id":"not-a-uuid","type":"link"},{"id":42,"type":"link"}]`))
	for _, el := range got {
		require.NotEqual(t, "not-a-uuid", el.ID)
		_, err := uuid.Parse(el.ID)
		require.NoError(t, err)
	}
}

func TestRepairBioGeneratedIDsAreUnique(t *testing.T) {
	in := parse(t, `[{"type":"link"},{"type":"link"}]`)
	a := RepairBioElements(in)
	b := RepairBioElements(in)
	ids := map[string]bool{}
	for _, el := range append(a, b...) {
		require.False(t, ids[el.ID], "duplicate id %s", el.ID)
		ids[el.ID] = true
	}
}

func TestRepairBioDuplicateIDsAreReplaced(t *testing.T) {
	const id = "6f1c2a9e-3b4d-4c5e-8f70-112233445566"
	got := RepairBioElements(parse(t, `[{"id":"`+id+`","type":"link","order":0},{"id":"`+id+`","type":"card","order":1}]`))
	require.Len(t, got, 2)
	require.Equal(t, id, got[0].ID)
	require.NotEqual(t, id, got[1].ID)
}

func TestRepairBioKeepsUnmodelledFields(t *testing.T) {
	in := `[
		{"type":"socials","socialLinks":{"twitter":"https://t"}},
		{"type":"image","imageUrl":"https://i/x.png","title":""},
		{"type":7,"order":2}
	]`
	got := RepairBioElements(parse(t, in))
	require.Len(t, got, 3)

	require.Equal(t, map[string]any{"socialLinks": map[string]any{"twitter": "https://t"}}, got[0].Fields)
	require.Equal(t, map[string]any{"imageUrl": "https://i/x.png", "title": ""}, got[1].Fields)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "https://i/x.png", out[1]["imageUrl"])
	require.Contains(t, out[1], "title")
	require.Equal(t, float64(7), out[2]["type"])
}

func TestRepairBioCanonicalizesIDs(t *testing.T) {
	const canonical = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	for _, id := range []string{
		canonical,
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
		"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		"6ba7b8109dad11d180b400c04fd430c8",
		"6BA7B810-9DAD-11D1-80B4-00C04FD430C8",
	} {
		got := RepairBioElements(parse(t, `[{"type":"link","id":"`+id+`"}]`))
		require.Len(t, got, 1)
		require.Equal(t, canonical, got[0].ID, "input id %s", id)
	}
}

func TestRepairBioDuplicateSpellingsAreReplaced(t *testing.T) {
	got := RepairBioElements(parse(t, `[
		{"type":"link","order":0,"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"type":"card","order":1,"id":"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"},
		{"type":"card","order":2,"id":"6ba7b8109dad11d180b400c04fd430c8"}
	]`))
	require.Len(t, got, 3)
	ids := map[string]bool{}
	for _, el := range got {
		require.False(t, ids[el.ID], "duplicate id %s", el.ID)
		ids[el.ID] = true
	}
	require.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", got[0].ID)
}
