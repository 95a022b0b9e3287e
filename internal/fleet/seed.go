package fleet

// DefaultSeed returns the reference warehouse fleet used when no seed is configured.
func DefaultSeed() []Robot {
	return []Robot{
		{
			ID:       "AMR-001",
			Name:     "Atlas",
			Type:     "AMR-200X",
			Battery:  87,
			Status:   StatusActive,
			Task:     "Transporting pallet B-42 → Zone C",
			Speed:    1.2,
			Position: Vec3{-6, 0.3, -2},
			Path: []Vec3{
				{-6, 0.3, -2},
				{-6, 0.3, 4},
				{0, 0.3, 4},
				{0, 0.3, -2},
				{-6, 0.3, -2},
			},
			Color:       "#1c9fff",
			Temperature: 42,
			Uptime:      847,
			PayloadKg:   120,
		},
		{
			ID:       "AMR-002",
			Name:     "Bolt",
			Type:     "AMR-200X",
			Battery:  63,
			Status:   StatusActive,
			Task:     "Picking order #1847 in Aisle 3",
			Speed:    0.8,
			Position: Vec3{4, 0.3, -4},
			Path: []Vec3{
				{4, 0.3, -4},
				{4, 0.3, 2},
				{8, 0.3, 2},
				{8, 0.3, -4},
				{4, 0.3, -4},
			},
			Color:       "#00d4aa",
			Temperature: 38,
			Uptime:      623,
			PayloadKg:   85,
		},
		{
			ID:       "AGV-003",
			Name:     "Crate",
			Type:     "AGV-500H",
			Battery:  34,
			Status:   StatusCharging,
			Task:     "Charging at Station D",
			Speed:    0,
			Position: Vec3{-2, 0.3, 6},
			Path: []Vec3{
				{-2, 0.3, 6},
				{-2, 0.3, 6},
			},
			Color:       "#ff6b35",
			Temperature: 31,
			Uptime:      1203,
			PayloadKg:   0,
		},
		{
			ID:       "AMR-004",
			Name:     "Dash",
			Type:     "AMR-200X",
			Battery:  95,
			Status:   StatusActive,
			Task:     "Returning to staging area",
			Speed:    1.5,
			Position: Vec3{6, 0.3, 5},
			Path: []Vec3{
				{6, 0.3, 5},
				{-4, 0.3, 5},
				{-4, 0.3, -3},
				{6, 0.3, -3},
				{6, 0.3, 5},
			},
			Color:       "#76b900",
			Temperature: 45,
			Uptime:      312,
			PayloadKg:   200,
		},
	}
}
