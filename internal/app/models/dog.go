package models

type DogSize string

const (
	DogSizeSmall  DogSize = "small"
	DogSizeMedium DogSize = "medium"
	DogSizeLarge  DogSize = "large"
)

func (s DogSize) Valid() bool {
	switch s {
	case DogSizeSmall, DogSizeMedium, DogSizeLarge:
		return true
	}
	return false
}

// DogListing is a row of the public dog directory.
type DogListing struct {
	DogName       string  `json:"dog_name"`
	Size          DogSize `json:"size"`
	OwnerUsername string  `json:"owner_username"`
}

type OwnedDog struct {
	ID   int64   `json:"dog_id"`
	Name string  `json:"name"`
	Size DogSize `json:"size"`
}

type CreateDogParams struct {
	OwnerID int64
	Name    string
	Size    DogSize
}
