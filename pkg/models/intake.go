package models

// ProcessReport describes the outcome of one video intake run.
type ProcessReport struct {
	SignName        string          `json:"sign_name"`
	Message         string          `json:"message"`
	VideoURL        string          `json:"video_url"`
	DataURL         string          `json:"data_url"`
	Properties      VideoProperties `json:"properties"`
	ProcessedFrames int             `json:"processed_frames"`
}

// SignInfo identifies one fully processed sign (video plus landmark data).
type SignInfo struct {
	Name     string `json:"name"`
	VideoURL string `json:"video_url"`
	DataURL  string `json:"data_url"`
}

// StorageStats reports file counts and disk usage of the sign store.
type StorageStats struct {
	BaseDirectory string  `json:"base_directory"`
	TotalSigns    int     `json:"total_signs"`
	VideoFiles    int     `json:"video_files"`
	DataFiles     int     `json:"data_files"`
	StorageSizeMB float64 `json:"storage_size_mb"`
}
