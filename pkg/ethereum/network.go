package ethereum

type Network struct {
	ID   int64
	Name string
}

var networkMap = map[int64]Network{
	1:        {ID: 1, Name: "mainnet"},
	11155111: {ID: 11155111, Name: "sepolia"},
	17000:    {ID: 17000, Name: "holesky"},
	560048:   {ID: 560048, Name: "hoodi"},
}

// NetworkName returns the canonical name for the given chain ID, or
// "unknown" for chains outside the map.
func NetworkName(chainID int64) string {
	if network, exists := networkMap[chainID]; exists {
		return network.Name
	}

	return "unknown"
}
