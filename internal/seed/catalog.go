package seed

// CategorySeed is one default category with its starter items.
type CategorySeed struct {
	Name  string
	Icon  string
	Color string
	Items []ItemSeed
}

type ItemSeed struct {
	Name string
	Rate string
	Unit string
}

// DefaultCatalog is listed in display order.
var DefaultCatalog = []CategorySeed{
	{Name: "LOHA", Icon: "layers", Color: "#B71C1C", Items: []ItemSeed{
		{"Iron Rods (Sariya)", "85", "kg"},
		{"Cast Iron", "45", "kg"},
		{"Iron Sheets", "55", "kg"},
		{"Galvanized Iron", "60", "kg"},
		{"Iron Pipes", "50", "kg"},
	}},
	{Name: "COPPER", Icon: "circle", Color: "#E65100", Items: []ItemSeed{
		{"Copper Wire", "850", "kg"},
		{"Copper Pipe", "820", "kg"},
		{"Copper Scrap Mixed", "780", "kg"},
		{"Copper Bright", "900", "kg"},
	}},
	{Name: "ALUMINUM", Icon: "square", Color: "#00695C", Items: []ItemSeed{
		{"Aluminum Cans", "160", "kg"},
		{"Aluminum Sheet", "180", "kg"},
		{"Aluminum Wire", "175", "kg"},
		{"Aluminum Utensils", "165", "kg"},
	}},
	{Name: "PLASTIC", Icon: "box", Color: "#C2185B", Items: []ItemSeed{
		{"PET Bottles", "35", "kg"},
		{"HDPE (Hard Plastic)", "40", "kg"},
		{"PP (Polypropylene)", "38", "kg"},
		{"PVC Pipes", "32", "kg"},
	}},
	{Name: "BRASS", Icon: "award", Color: "#FF8F00", Items: []ItemSeed{
		{"Brass Fittings", "550", "kg"},
		{"Brass Mixed", "520", "kg"},
		{"Brass Radiator", "480", "kg"},
	}},
	{Name: "BATTERY", Icon: "battery", Color: "#2E7D32", Items: []ItemSeed{
		{"Car Battery (Used)", "140", "kg"},
		{"UPS Battery", "135", "kg"},
		{"Dry Cell Battery", "45", "kg"},
	}},
	{Name: "PAPER", Icon: "file-text", Color: "#6D4C41", Items: []ItemSeed{
		{"Newspaper", "22", "kg"},
		{"Cardboard", "18", "kg"},
		{"Office Paper", "25", "kg"},
		{"Books/Magazines", "20", "kg"},
	}},
	{Name: "STEEL", Icon: "shield", Color: "#455A64", Items: []ItemSeed{
		{"Stainless Steel", "120", "kg"},
		{"Mild Steel", "45", "kg"},
		{"Steel Scrap Mixed", "42", "kg"},
	}},
	{Name: "ELECTRONICS", Icon: "cpu", Color: "#1565C0", Items: []ItemSeed{
		{"Computer/Laptop", "250", "piece"},
		{"Mobile Phone", "50", "piece"},
		{"TV/Monitor", "150", "piece"},
		{"AC Unit", "800", "piece"},
	}},
	{Name: "GLASS", Icon: "droplet", Color: "#00838F", Items: []ItemSeed{
		{"Glass Bottles", "8", "kg"},
		{"Window Glass", "12", "kg"},
		{"Broken Glass Mixed", "5", "kg"},
	}},
	{Name: "RUBBER", Icon: "disc", Color: "#7B1FA2", Items: []ItemSeed{
		{"Car Tyres", "25", "kg"},
		{"Truck Tyres", "28", "kg"},
		{"Rubber Scrap", "15", "kg"},
	}},
	{Name: "SILVER", Icon: "star", Color: "#757575", Items: []ItemSeed{
		{"Silver Jewelry", "75000", "tola"},
		{"Silver Coins", "72000", "tola"},
		{"Silver Scrap", "70000", "tola"},
	}},
	{Name: "ZINC", Icon: "hexagon", Color: "#9E9D24", Items: []ItemSeed{
		{"Zinc Ingots", "280", "kg"},
		{"Zinc Die Cast", "250", "kg"},
		{"Zinc Scrap", "220", "kg"},
	}},
}
