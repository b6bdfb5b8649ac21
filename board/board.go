// board/board.go
package board

// SpaceType 表示棋盘格子的类型
type SpaceType string

const (
	TypeGo          SpaceType = "go"
	TypeProperty    SpaceType = "property"
	TypeCommunity   SpaceType = "community"
	TypeTax         SpaceType = "tax"
	TypeRailroad    SpaceType = "railroad"
	TypeChance      SpaceType = "chance"
	TypeJail        SpaceType = "jail"
	TypeUtility     SpaceType = "utility"
	TypeFreeParking SpaceType = "freeparking"
	TypeGoToJail    SpaceType = "gotojail"
)

const (
	Size         = 40
	GoPosition   = 0
	JailPosition = 10
)

// Space is one fixed position on the board. Rent is indexed by ownership
// tier; only railroads use more than the first entry.
type Space struct {
	ID     int       `json:"id"`
	Name   string    `json:"name"`
	Type   SpaceType `json:"type"`
	Color  string    `json:"color,omitempty"`
	Price  int       `json:"price,omitempty"`
	Rent   []int     `json:"rent,omitempty"`
	Amount int       `json:"amount,omitempty"`
}

// Ownable reports whether the space can be bought.
func (s Space) Ownable() bool {
	switch s.Type {
	case TypeProperty, TypeRailroad, TypeUtility:
		return true
	}
	return false
}

// Board 是按位置排列的格子序列，初始化后不可修改
type Board []Space

// Space returns the space at pos, wrapping around the board.
func (b Board) Space(pos int) Space {
	pos %= len(b)
	if pos < 0 {
		pos += len(b)
	}
	return b[pos]
}

// CountOwned counts how many of the given space ids are of type t.
func (b Board) CountOwned(ids []int, t SpaceType) int {
	n := 0
	for _, id := range ids {
		if id >= 0 && id < len(b) && b[id].Type == t {
			n++
		}
	}
	return n
}

var railroadRent = []int{25, 50, 100, 200}

// Classic is the standard 40-space board shared by every room.
var Classic = Board{
	{ID: 0, Name: "GO", Type: TypeGo},
	{ID: 1, Name: "Mediterranean Avenue", Type: TypeProperty, Color: "brown", Price: 60, Rent: []int{2, 10, 30, 90, 160, 250}},
	{ID: 2, Name: "Community Chest", Type: TypeCommunity},
	{ID: 3, Name: "Baltic Avenue", Type: TypeProperty, Color: "brown", Price: 60, Rent: []int{4, 20, 60, 180, 320, 450}},
	{ID: 4, Name: "Income Tax", Type: TypeTax, Amount: 200},
	{ID: 5, Name: "Reading Railroad", Type: TypeRailroad, Price: 200, Rent: railroadRent},
	{ID: 6, Name: "Oriental Avenue", Type: TypeProperty, Color: "lightblue", Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}},
	{ID: 7, Name: "Chance", Type: TypeChance},
	{ID: 8, Name: "Vermont Avenue", Type: TypeProperty, Color: "lightblue", Price: 100, Rent: []int{6, 30, 90, 270, 400, 550}},
	{ID: 9, Name: "Connecticut Avenue", Type: TypeProperty, Color: "lightblue", Price: 120, Rent: []int{8, 40, 100, 300, 450, 600}},
	{ID: 10, Name: "Jail / Just Visiting", Type: TypeJail},
	{ID: 11, Name: "St. Charles Place", Type: TypeProperty, Color: "pink", Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}},
	{ID: 12, Name: "Electric Company", Type: TypeUtility, Price: 150},
	{ID: 13, Name: "States Avenue", Type: TypeProperty, Color: "pink", Price: 140, Rent: []int{10, 50, 150, 450, 625, 750}},
	{ID: 14, Name: "Virginia Avenue", Type: TypeProperty, Color: "pink", Price: 160, Rent: []int{12, 60, 180, 500, 700, 900}},
	{ID: 15, Name: "Pennsylvania Railroad", Type: TypeRailroad, Price: 200, Rent: railroadRent},
	{ID: 16, Name: "St. James Place", Type: TypeProperty, Color: "orange", Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}},
	{ID: 17, Name: "Community Chest", Type: TypeCommunity},
	{ID: 18, Name: "Tennessee Avenue", Type: TypeProperty, Color: "orange", Price: 180, Rent: []int{14, 70, 200, 550, 750, 950}},
	{ID: 19, Name: "New York Avenue", Type: TypeProperty, Color: "orange", Price: 200, Rent: []int{16, 80, 220, 600, 800, 1000}},
	{ID: 20, Name: "Free Parking", Type: TypeFreeParking},
	{ID: 21, Name: "Kentucky Avenue", Type: TypeProperty, Color: "red", Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}},
	{ID: 22, Name: "Chance", Type: TypeChance},
	{ID: 23, Name: "Indiana Avenue", Type: TypeProperty, Color: "red", Price: 220, Rent: []int{18, 90, 250, 700, 875, 1050}},
	{ID: 24, Name: "Illinois Avenue", Type: TypeProperty, Color: "red", Price: 240, Rent: []int{20, 100, 300, 750, 925, 1100}},
	{ID: 25, Name: "B&O Railroad", Type: TypeRailroad, Price: 200, Rent: railroadRent},
	{ID: 26, Name: "Atlantic Avenue", Type: TypeProperty, Color: "yellow", Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}},
	{ID: 27, Name: "Ventnor Avenue", Type: TypeProperty, Color: "yellow", Price: 260, Rent: []int{22, 110, 330, 800, 975, 1150}},
	{ID: 28, Name: "Water Works", Type: TypeUtility, Price: 150},
	{ID: 29, Name: "Marvin Gardens", Type: TypeProperty, Color: "yellow", Price: 280, Rent: []int{24, 120, 360, 850, 1025, 1200}},
	{ID: 30, Name: "Go To Jail", Type: TypeGoToJail},
	{ID: 31, Name: "Pacific Avenue", Type: TypeProperty, Color: "green", Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}},
	{ID: 32, Name: "North Carolina Avenue", Type: TypeProperty, Color: "green", Price: 300, Rent: []int{26, 130, 390, 900, 1100, 1275}},
	{ID: 33, Name: "Community Chest", Type: TypeCommunity},
	{ID: 34, Name: "Pennsylvania Avenue", Type: TypeProperty, Color: "green", Price: 320, Rent: []int{28, 150, 450, 1000, 1200, 1400}},
	{ID: 35, Name: "Short Line Railroad", Type: TypeRailroad, Price: 200, Rent: railroadRent},
	{ID: 36, Name: "Chance", Type: TypeChance},
	{ID: 37, Name: "Park Place", Type: TypeProperty, Color: "darkblue", Price: 350, Rent: []int{35, 175, 500, 1100, 1300, 1500}},
	{ID: 38, Name: "Luxury Tax", Type: TypeTax, Amount: 100},
	{ID: 39, Name: "Boardwalk", Type: TypeProperty, Color: "darkblue", Price: 400, Rent: []int{50, 200, 600, 1400, 1700, 2000}},
}
