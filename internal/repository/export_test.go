package repository

var NullableString = nullableString
var FormatTime = formatTime
var ParseTime = parseTime
var TranslateError = translateError
