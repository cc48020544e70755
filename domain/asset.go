package domain

import "errors"

var (
	MessageSuccessGetAsset = "asset retrieved successfully"
	MessageFailedGetAsset  = "failed to retrieve asset"

	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrEmptyAsset         = errors.New("asset is empty")
)
