package graph

// Default builds the fixed world graph the engine runs against: the
// regions and macro entities the monitored signal sources talk about,
// wired to the Korean market assets they move.
func Default() *Graph {
	return New(defaultEntities, defaultEdges)
}

var defaultEntities = []Entity{
	// Regions
	{ID: "region:korean_peninsula", Name: "Korean Peninsula", Type: TypeRegion},
	{ID: "region:taiwan_strait", Name: "Taiwan Strait", Type: TypeRegion},
	{ID: "region:middle_east", Name: "Middle East", Type: TypeRegion},
	{ID: "region:eastern_europe", Name: "Eastern Europe", Type: TypeRegion},
	{ID: "region:south_china_sea", Name: "South China Sea", Type: TypeRegion},

	// Countries
	{ID: "country:north_korea", Name: "North Korea", Type: TypeCountry},
	{ID: "country:south_korea", Name: "South Korea", Type: TypeCountry},
	{ID: "country:china", Name: "China", Type: TypeCountry},
	{ID: "country:taiwan", Name: "Taiwan", Type: TypeCountry},
	{ID: "country:usa", Name: "United States", Type: TypeCountry},
	{ID: "country:iran", Name: "Iran", Type: TypeCountry},
	{ID: "country:russia", Name: "Russia", Type: TypeCountry},

	// Sectors
	{ID: "sector:semiconductor", Name: "Semiconductors", Type: TypeSector},
	{ID: "sector:defense", Name: "Defense", Type: TypeSector},
	{ID: "sector:energy", Name: "Energy", Type: TypeSector},
	{ID: "sector:shipping", Name: "Shipping", Type: TypeSector},
	{ID: "sector:financials", Name: "Financials", Type: TypeSector},

	// Companies (KRX tickers)
	{ID: "company:005930", Name: "Samsung Electronics", Type: TypeCompany},
	{ID: "company:000660", Name: "SK Hynix", Type: TypeCompany},
	{ID: "company:012450", Name: "Hanwha Aerospace", Type: TypeCompany},
	{ID: "company:047810", Name: "Korea Aerospace Industries", Type: TypeCompany},
	{ID: "company:079550", Name: "LIG Nex1", Type: TypeCompany},
	{ID: "company:096770", Name: "SK Innovation", Type: TypeCompany},
	{ID: "company:009540", Name: "HD Hyundai Heavy Industries", Type: TypeCompany},
	{ID: "company:028670", Name: "Pan Ocean", Type: TypeCompany},
	{ID: "company:105560", Name: "KB Financial Group", Type: TypeCompany},

	// Assets
	{ID: "asset:KOSPI", Name: "KOSPI", Type: TypeAsset},
	{ID: "asset:VIX", Name: "VIX", Type: TypeAsset},
	{ID: "asset:USDKRW", Name: "USD/KRW", Type: TypeAsset},
	{ID: "asset:gold", Name: "Gold", Type: TypeAsset},
	{ID: "asset:WTI", Name: "WTI Crude", Type: TypeAsset},
	{ID: "asset:BTC", Name: "Bitcoin", Type: TypeAsset},
	{ID: "asset:UST10Y", Name: "US 10Y Treasury", Type: TypeAsset},
	{ID: "asset:JPY", Name: "Japanese Yen", Type: TypeAsset},

	// Institutions
	{ID: "institution:fed", Name: "Federal Reserve", Type: TypeInstitution},
	{ID: "institution:us_forces", Name: "US Strategic Forces", Type: TypeInstitution},
	{ID: "institution:opec", Name: "OPEC", Type: TypeInstitution},

	// Event classes
	{ID: "event:fomc", Name: "FOMC Meeting", Type: TypeEvent},
	{ID: "event:earnings", Name: "Earnings Season", Type: TypeEvent},
	{ID: "event:opec_meeting", Name: "OPEC Meeting", Type: TypeEvent},
}

var defaultEdges = []Edge{
	// Korean peninsula tension propagates into KR assets and defense.
	{From: "region:korean_peninsula", To: "asset:KOSPI", Weight: 0.9, HopDecay: 0.7},
	{From: "region:korean_peninsula", To: "asset:USDKRW", Weight: 0.85, HopDecay: 0.7},
	{From: "region:korean_peninsula", To: "sector:defense", Weight: 0.8, HopDecay: 0.7},
	{From: "region:korean_peninsula", To: "asset:gold", Weight: 0.5, HopDecay: 0.7},
	{From: "region:korean_peninsula", To: "country:south_korea", Weight: 0.95, HopDecay: 0.7},
	{From: "country:north_korea", To: "region:korean_peninsula", Weight: 0.95, HopDecay: 0.8},
	{From: "country:south_korea", To: "asset:KOSPI", Weight: 0.9, HopDecay: 0.7},
	{From: "country:south_korea", To: "sector:semiconductor", Weight: 0.7, HopDecay: 0.7},

	// Taiwan strait hits semis hardest.
	{From: "region:taiwan_strait", To: "sector:semiconductor", Weight: 0.9, HopDecay: 0.7},
	{From: "region:taiwan_strait", To: "asset:KOSPI", Weight: 0.6, HopDecay: 0.7},
	{From: "region:taiwan_strait", To: "sector:shipping", Weight: 0.6, HopDecay: 0.7},
	{From: "country:china", To: "region:taiwan_strait", Weight: 0.8, HopDecay: 0.8},
	{From: "country:taiwan", To: "region:taiwan_strait", Weight: 0.9, HopDecay: 0.8},
	{From: "country:china", To: "region:south_china_sea", Weight: 0.7, HopDecay: 0.8},
	{From: "region:south_china_sea", To: "sector:shipping", Weight: 0.8, HopDecay: 0.7},

	// Middle East is an oil story first.
	{From: "region:middle_east", To: "asset:WTI", Weight: 0.9, HopDecay: 0.7},
	{From: "region:middle_east", To: "sector:energy", Weight: 0.8, HopDecay: 0.7},
	{From: "region:middle_east", To: "sector:shipping", Weight: 0.6, HopDecay: 0.7},
	{From: "region:middle_east", To: "asset:gold", Weight: 0.55, HopDecay: 0.7},
	{From: "country:iran", To: "region:middle_east", Weight: 0.9, HopDecay: 0.8},
	{From: "region:eastern_europe", To: "asset:WTI", Weight: 0.6, HopDecay: 0.7},
	{From: "region:eastern_europe", To: "sector:energy", Weight: 0.6, HopDecay: 0.7},
	{From: "country:russia", To: "region:eastern_europe", Weight: 0.9, HopDecay: 0.8},

	// Macro plumbing.
	{From: "institution:fed", To: "asset:UST10Y", Weight: 0.9, HopDecay: 0.7},
	{From: "institution:fed", To: "asset:gold", Weight: 0.6, HopDecay: 0.7},
	{From: "institution:fed", To: "asset:USDKRW", Weight: 0.6, HopDecay: 0.7},
	{From: "event:fomc", To: "institution:fed", Weight: 0.95, HopDecay: 0.8},
	{From: "event:opec_meeting", To: "asset:WTI", Weight: 0.8, HopDecay: 0.7},
	{From: "institution:opec", To: "asset:WTI", Weight: 0.8, HopDecay: 0.7},
	{From: "asset:VIX", To: "asset:KOSPI", Weight: 0.7, HopDecay: 0.7},
	{From: "asset:VIX", To: "asset:gold", Weight: 0.5, HopDecay: 0.7},
	{From: "asset:VIX", To: "asset:JPY", Weight: 0.5, HopDecay: 0.7},
	{From: "asset:UST10Y", To: "sector:financials", Weight: 0.6, HopDecay: 0.7},
	{From: "country:usa", To: "asset:VIX", Weight: 0.6, HopDecay: 0.7},
	{From: "institution:us_forces", To: "region:korean_peninsula", Weight: 0.7, HopDecay: 0.8},

	// Sector membership (company -> sector reverse lookup).
	{From: "company:005930", To: "sector:semiconductor", Weight: 0.9, HopDecay: 0.7},
	{From: "company:000660", To: "sector:semiconductor", Weight: 0.9, HopDecay: 0.7},
	{From: "company:012450", To: "sector:defense", Weight: 0.9, HopDecay: 0.7},
	{From: "company:047810", To: "sector:defense", Weight: 0.9, HopDecay: 0.7},
	{From: "company:079550", To: "sector:defense", Weight: 0.9, HopDecay: 0.7},
	{From: "company:096770", To: "sector:energy", Weight: 0.9, HopDecay: 0.7},
	{From: "company:009540", To: "sector:shipping", Weight: 0.9, HopDecay: 0.7},
	{From: "company:028670", To: "sector:shipping", Weight: 0.9, HopDecay: 0.7},
	{From: "company:105560", To: "sector:financials", Weight: 0.9, HopDecay: 0.7},

	// Sector -> representative names, so traversals surface tickers.
	{From: "sector:semiconductor", To: "company:005930", Weight: 0.85, HopDecay: 0.7},
	{From: "sector:semiconductor", To: "company:000660", Weight: 0.8, HopDecay: 0.7},
	{From: "sector:defense", To: "company:012450", Weight: 0.85, HopDecay: 0.7},
	{From: "sector:defense", To: "company:047810", Weight: 0.8, HopDecay: 0.7},
	{From: "sector:defense", To: "company:079550", Weight: 0.75, HopDecay: 0.7},
	{From: "sector:energy", To: "company:096770", Weight: 0.8, HopDecay: 0.7},
	{From: "sector:shipping", To: "company:009540", Weight: 0.8, HopDecay: 0.7},
	{From: "sector:shipping", To: "company:028670", Weight: 0.75, HopDecay: 0.7},
	{From: "sector:financials", To: "company:105560", Weight: 0.8, HopDecay: 0.7},
}
