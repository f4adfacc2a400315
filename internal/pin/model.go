package pin

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserInfo identifies a user as recorded on a pin: the canonical user id,
// display name, and the auth service the account came from.
type UserInfo struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Service string `bson:"service" json:"service"`
}

type Tag struct {
	Tag string `bson:"tag" json:"tag"`
}

// Pin is the persisted image-sharing record. Owner is immutable after
// insert; imgLink / tags / visionApiTags are rewritten by enrichment,
// savedBy by other users' save and unsave actions.
type Pin struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner          UserInfo           `bson:"owner" json:"owner"`
	ImgDescription string             `bson:"imgDescription" json:"imgDescription"`
	ImgLink        string             `bson:"imgLink" json:"imgLink"`
	// The link or inline payload exactly as submitted, kept for audit and retry.
	OriginalImgLink string     `bson:"originalImgLink" json:"originalImgLink"`
	IsBroken        bool       `bson:"isBroken" json:"isBroken"`
	Tags            []Tag      `bson:"tags" json:"tags"`
	VisionAPITags   []string   `bson:"visionApiTags" json:"visionApiTags"`
	SavedBy         []UserInfo `bson:"savedBy" json:"savedBy"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
}

// SavedTag is a catalog entry, created once per distinct label value.
type SavedTag struct {
	ID  primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Tag string             `bson:"tag" json:"tag"`
}

// PinLink is the audit record written once per successful relocation.
type PinLink struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PinID          string             `bson:"pin_id" json:"pin_id"`
	ImgLink        string             `bson:"imgLink" json:"imgLink"`
	CloudFrontLink string             `bson:"cloudFrontLink" json:"cloudFrontLink"`
}

// AIGenerated records one successful AI image generation; counted per
// owner for quota enforcement.
type AIGenerated struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ImgURL    string             `bson:"imgURL" json:"imgURL"`
	Title     string             `bson:"title" json:"title"`
	Owner     UserInfo           `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (p Pin) SavedByUser(userID string) bool {
	for _, s := range p.SavedBy {
		if s.ID == userID {
			return true
		}
	}
	return false
}
