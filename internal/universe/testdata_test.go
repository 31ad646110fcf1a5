package universe

// fixtureJSON builds a small six-system universe used across the package's
// tests: a high-sec chain with two border systems (Amarr, next to the
// low-sec pipe Lowsec1, and Perimeter, next to the null-sec shortcut), and a
// null-sec pocket (Nullsec1/Nullsec2) reachable either via the pipe or a
// direct null-sec shortcut off Perimeter.
const fixtureJSON = `{
  "version": "test-fixture-1",
  "systems": [
    {"id": 1, "name": "Jita", "security": 0.9, "constellation_id": 10, "constellation_name": "Kimotoro", "region_id": 100, "region_name": "The Forge"},
    {"id": 2, "name": "Perimeter", "security": 0.5, "constellation_id": 10, "constellation_name": "Kimotoro", "region_id": 100, "region_name": "The Forge"},
    {"id": 3, "name": "Amarr", "security": 0.9, "constellation_id": 20, "constellation_name": "Throne Worlds", "region_id": 200, "region_name": "Domain"},
    {"id": 4, "name": "Lowsec1", "security": 0.3, "constellation_id": 30, "constellation_name": "Borderland", "region_id": 300, "region_name": "Border Region"},
    {"id": 5, "name": "Nullsec1", "security": -0.1, "constellation_id": 40, "constellation_name": "Deep", "region_id": 400, "region_name": "Deep Space"},
    {"id": 6, "name": "Nullsec2", "security": 0.0, "constellation_id": 40, "constellation_name": "Deep", "region_id": 400, "region_name": "Deep Space"}
  ],
  "gates": [
    {"from": 1, "to": 2},
    {"from": 2, "to": 3},
    {"from": 3, "to": 4},
    {"from": 4, "to": 5},
    {"from": 5, "to": 6},
    {"from": 2, "to": 5}
  ]
}`

func mustBuildFixture() *Graph {
	g, err := Build([]byte(fixtureJSON))
	if err != nil {
		panic(err)
	}
	return g
}
