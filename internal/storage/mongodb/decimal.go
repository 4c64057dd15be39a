package mongodb

import (
	"reflect"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var tDecimal = reflect.TypeOf(decimal.Decimal{})

// NewRegistry returns the default BSON registry extended with a
// shopspring/decimal codec. Decimals are written as Decimal128; doubles,
// integers and numeric strings written by older clients are accepted on read.
func NewRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tDecimal, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(tDecimal, bsoncodec.ValueDecoderFunc(decodeDecimal))
	return reg
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tDecimal {
		return bsoncodec.ValueEncoderError{Name: "DecimalEncodeValue", Types: []reflect.Type{tDecimal}, Received: val}
	}

	d := val.Interface().(decimal.Decimal)
	d128, ok := primitive.ParseDecimal128FromBigInt(d.Coefficient(), int(d.Exponent()))
	if !ok {
		return errors.Errorf("decimal with %d digits and exponent %d does not fit decimal128", d.NumDigits(), d.Exponent())
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tDecimal {
		return bsoncodec.ValueDecoderError{Name: "DecimalDecodeValue", Types: []reflect.Type{tDecimal}, Received: val}
	}

	d, err := readDecimal(vr)
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(d))
	return nil
}

func readDecimal(vr bsonrw.ValueReader) (decimal.Decimal, error) {
	switch t := vr.Type(); t {
	case bsontype.Decimal128:
		v, err := vr.ReadDecimal128()
		if err != nil {
			return decimal.Zero, err
		}
		coef, exp, err := v.BigInt()
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "convert decimal128")
		}
		return decimal.NewFromBigInt(coef, int32(exp)), nil
	case bsontype.Double:
		v, err := vr.ReadDouble()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromFloat(v), nil
	case bsontype.Int32:
		v, err := vr.ReadInt32()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt32(v), nil
	case bsontype.Int64:
		v, err := vr.ReadInt64()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(v), nil
	case bsontype.String:
		v, err := vr.ReadString()
		if err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, errors.Wrapf(err, "parse decimal %q", v)
		}
		return d, nil
	case bsontype.Null:
		return decimal.Zero, vr.ReadNull()
	default:
		return decimal.Zero, errors.Errorf("cannot decode BSON %s into decimal", t)
	}
}
