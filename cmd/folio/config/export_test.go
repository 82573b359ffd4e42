package configcmder

var Mask = mask
