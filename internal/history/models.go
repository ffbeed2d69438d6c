package history

import (
	"time"

	"gorm.io/datatypes"
)

// Reading 은 점괘 한 건의 기록이다. 전체 결과는 Payload 에 JSON 으로 담는다.
type Reading struct {
	ID           string         `gorm:"column:id;primaryKey;size:64"`
	Mode         string         `gorm:"column:mode;size:16;index:idx_readings_mode_created,priority:1"`
	Source       string         `gorm:"column:source;size:16"`
	HexagramCode string         `gorm:"column:hexagram_code;size:6"`
	HexagramName string         `gorm:"column:hexagram_name;size:64"`
	Rating       int            `gorm:"column:rating;not null;default:0"`
	LuckyImage   string         `gorm:"column:lucky_image"`
	Payload      datatypes.JSON `gorm:"column:payload"`
	CreatedAt    time.Time      `gorm:"column:created_at;index:idx_readings_mode_created,priority:2;index:idx_readings_created"`
}

// TableName: GORM 모델이 매핑될 테이블 이름을 반환한다. ("fortune_readings")
func (Reading) TableName() string {
	return "fortune_readings"
}

// Summary 는 목록 조회용 요약이다.
type Summary struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Source       string    `json:"source"`
	HexagramCode string    `json:"hexagramCode"`
	HexagramName string    `json:"hexagramName"`
	Rating       int       `json:"rating"`
	LuckyImage   string    `json:"luckyImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toSummary(row Reading) Summary {
	return Summary{
		ID:           row.ID,
		Mode:         row.Mode,
		Source:       row.Source,
		HexagramCode: row.HexagramCode,
		HexagramName: row.HexagramName,
		Rating:       row.Rating,
		LuckyImage:   row.LuckyImage,
		CreatedAt:    row.CreatedAt,
	}
}
